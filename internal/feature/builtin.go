package feature

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/callpulse/internal/payload"
	"github.com/KaramelBytes/callpulse/internal/prompt"
	"github.com/KaramelBytes/callpulse/internal/table"
	"github.com/KaramelBytes/callpulse/internal/utils"
)

const (
	defaultTopSellers  = 5
	maxViolations      = 20
	violationContext   = 200
	largePayloadTokens = 60000
)

var callRules = map[string]table.Rules{
	SourceCalls: {
		ColManager: table.ToString(),
		ColSales:   table.ToNumber(0),
	},
	SourceAgents: {
		ColManager: table.ToString(),
	},
	SourceTriggerWords: {
		ColTrigger: table.LowercaseTrim(),
	},
}

var agentsJoin = JoinStep{Source: SourceAgents, Key: table.On(ColManager), Kind: table.LeftJoin, Optional: true}

func builtins() []Definition {
	return []Definition{
		{
			ID:          Sentiment,
			Title:       "😊 Manager speech sentiment",
			Description: "Rates the tone of each manager's speech as positive, neutral or negative with a short justification.",
			Sources:     []string{SourceCalls},
			Normalize:   callRules,
			Prepare:     filterManager,
			Payload: func(Params) payload.Spec {
				return payload.Spec{
					Columns:    payload.Cols(ColManager, ColTranscript),
					Filter:     payload.NonMissing(ColManager, ColTranscript),
					MaxRecords: 100,
				}
			},
			Template: sentimentTemplate,
			Empty:    "❌ No call transcripts to analyse.",
		},
		{
			ID:          ManagerType,
			Title:       "🧩 Manager type classification",
			Description: "Matches each manager to one of the predefined manager types based on their call transcripts.",
			Sources:     []string{SourceCalls, SourceManagerTypes},
			Normalize:   callRules,
			Prepare: func(s *Stage) (string, error) {
				if notice, err := filterManager(s); notice != "" || err != nil {
					return notice, err
				}
				types := describeTypes(s.Tables[SourceManagerTypes])
				if types == "" {
					return "❌ No manager types are defined.", nil
				}
				s.Sections = append(s.Sections, prompt.Section{Title: "Manager types", Body: types})
				return "", nil
			},
			Payload: func(p Params) payload.Spec {
				limit := 30
				if p.ManagerID != "" {
					limit = 5
				}
				return payload.Spec{
					Columns:    payload.Cols(ColManager, ColTranscript),
					Filter:     payload.NonMissing(ColManager, ColTranscript),
					MaxRecords: limit,
				}
			},
			Template: managerTypeTemplate,
			Empty:    "❌ No transcripts to analyse.",
		},
		{
			ID:          ProhibitedWords,
			Title:       "🚫 Prohibited word detection",
			Description: "Scans every transcript for words from the trigger list and shows where they were used.",
			Sources:     []string{SourceCalls, SourceTriggerWords},
			Normalize:   callRules,
			Local:       scanProhibited,
		},
		{
			ID:          TopSellers,
			Title:       "🏆 Top-seller opening strategies",
			Description: "Finds the managers with the highest sales and analyses how they open their calls.",
			Sources:     []string{SourceCalls},
			Normalize:   callRules,
			Prepare: func(s *Stage) (string, error) {
				n := s.Params.TopN
				if n <= 0 {
					n = defaultTopSellers
				}
				top := table.TopN(table.SumBy(s.Data, ColManager, ColSales), n)
				ids := make([]string, len(top))
				for i, g := range top {
					ids[i] = g.Key
				}
				s.Data = s.Data.Filter(payload.In(ColManager, ids))
				return "", nil
			},
			Payload: func(Params) payload.Spec {
				return payload.Spec{
					Columns:        []payload.Column{{Name: ColManager}, {Name: ColTranscript, As: "TRANSCRIPT_START"}},
					Filter:         payload.NonMissing(ColManager, ColTranscript),
					DedupKey:       ColManager,
					TextField:      ColTranscript,
					MaxFieldLength: 300,
					MaxRecords:     10,
				}
			},
			Template: topSellersTemplate,
			Empty:    "❌ Top sellers have no transcripts.",
		},
		{
			ID:          AgentPerformance,
			Title:       "📈 Agent performance scoring",
			Description: "Comprehensive agent evaluation: orders, conversion, sales volume and customer reach per agent.",
			Sources:     []string{SourceCalls},
			Normalize:   callRules,
			Joins:       []JoinStep{agentsJoin},
			Payload: func(Params) payload.Spec {
				return payload.Spec{
					Columns:    payload.Cols(ColManager, ColName, ColTeam, ColOrder, ColStatus, ColSales, ColCustomer),
					Filter:     payload.NonMissing(ColManager),
					MaxRecords: 2000,
					MaxTokens:  largePayloadTokens,
				}
			},
			Template: agentPerformanceTemplate,
			Empty:    "❌ No orders to evaluate.",
		},
		{
			ID:          EmotionalDynamics,
			Title:       "💬 Customer emotional dynamics",
			Description: "Traces how the customer's mood changes over the course of a call and what the agent did about it.",
			Sources:     []string{SourceCalls},
			Normalize:   callRules,
			Joins:       []JoinStep{agentsJoin},
			Payload: func(Params) payload.Spec {
				return payload.Spec{
					Columns:        payload.Cols(ColManager, ColName, ColStatus, ColTranscript),
					Filter:         payload.NonMissing(ColTranscript),
					TextField:      ColTranscript,
					MaxFieldLength: 1000,
					MaxRecords:     30,
				}
			},
			Template: emotionalDynamicsTemplate,
			Empty:    "❌ No call transcripts to analyse.",
		},
		{
			ID:          SalesPhrases,
			Title:       "🔑 Sales phrase impact",
			Description: "Identifies phrases that go together with successful sales.",
			Sources:     []string{SourceCalls},
			Normalize:   callRules,
			Joins:       []JoinStep{agentsJoin},
			Payload: func(Params) payload.Spec {
				return payload.Spec{
					Columns:        payload.Cols(ColManager, ColStatus, ColSales, ColTranscript),
					Filter:         payload.NonMissing(ColTranscript),
					TextField:      ColTranscript,
					MaxFieldLength: 200,
					MaxRecords:     3000,
					MaxTokens:      largePayloadTokens,
				}
			},
			Template: salesPhrasesTemplate,
			Empty:    "❌ No call transcripts to analyse.",
		},
	}
}

// filterManager narrows Data to Params.ManagerID when one is given.
func filterManager(s *Stage) (string, error) {
	id := strings.TrimSpace(s.Params.ManagerID)
	if id == "" {
		return "", nil
	}
	s.Data = s.Data.Filter(payload.Equals(ColManager, id))
	if s.Data.Len() == 0 {
		return fmt.Sprintf("❌ Manager with ID %s not found.", id), nil
	}
	return "", nil
}

func describeTypes(t *table.Table) string {
	var sb strings.Builder
	for i := range t.Rows {
		row := t.Row(i)
		typ := row.Get(ColType)
		if typ.IsMissing() {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s\n", strings.TrimSpace(typ.Text()), strings.TrimSpace(row.Get(ColDescription).Text()))
	}
	return strings.TrimSpace(sb.String())
}

// scanProhibited reports transcripts containing trigger words.
func scanProhibited(s *Stage) (string, error) {
	words := make([]string, 0)
	for _, w := range s.Tables[SourceTriggerWords].Distinct(ColTrigger) {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	sort.Strings(words)

	var sb strings.Builder
	found := 0
	keep := payload.NonMissing(ColManager, ColTranscript)
	for i := range s.Data.Rows {
		row := s.Data.Row(i)
		if !keep(row) {
			continue
		}
		transcript := strings.ToLower(row.Get(ColTranscript).Text())
		var hits []string
		for _, w := range words {
			if strings.Contains(transcript, w) {
				hits = append(hits, w)
			}
		}
		if len(hits) == 0 {
			continue
		}
		found++
		if found > maxViolations {
			continue
		}
		snippet, _ := utils.TruncateRunes(transcript, violationContext, payload.TruncationMarker)
		fmt.Fprintf(&sb, "- Manager %s: %s\n  Context: \"%s\"\n\n", row.Get(ColManager).Text(), strings.Join(hits, ", "), snippet)
	}
	if found == 0 {
		return "✅ No prohibited words found.", nil
	}
	header := "⚠️ Prohibited words detected:\n\n"
	if found > maxViolations {
		header = fmt.Sprintf("⚠️ Prohibited words detected in %d calls (first %d shown):\n\n", found, maxViolations)
	}
	return strings.TrimSpace(header + sb.String()), nil
}
