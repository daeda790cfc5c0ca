package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/callpulse/internal/payload"
	"github.com/KaramelBytes/callpulse/internal/table"
)

func testPayload(t *testing.T) *payload.Payload {
	t.Helper()
	tb := table.New("calls", table.Schema{}, []string{"ID_MANAGER", "CALL_CHIFR"}, []table.Record{
		{table.Str("7"), table.Str("Добрый день, <компания> слушает")},
		{table.Str("8"), table.Str("Hello & welcome")},
	})
	p, err := payload.Build(tb, payload.Spec{Columns: payload.Cols("ID_MANAGER", "CALL_CHIFR"), MaxRecords: 10})
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	return p
}

var tmpl = Template{
	Role:            "You are a call-center quality analyst.",
	Instructions:    "Classify sentiment as positive, neutral or negative.",
	Temperature:     0.3,
	MaxOutputTokens: 600,
}

func TestComposeEmbedsPayloadVerbatim(t *testing.T) {
	p := testPayload(t)
	req, err := Composer{Language: "Russian"}.Compose(p, tmpl, Section{Title: "Manager types", Body: "A: hunter"})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	data, _ := p.JSON()
	if !strings.Contains(req.Instructions, data) {
		t.Fatalf("payload JSON not embedded verbatim:\n%s", req.Instructions)
	}
	for _, want := range []string{"[INSTRUCTIONS]", "Classify sentiment", "Write the report in Russian.", "[MANAGER TYPES]\nA: hunter", "[DATA] (2 records, JSON)"} {
		if !strings.Contains(req.Instructions, want) {
			t.Errorf("missing %q in instructions", want)
		}
	}
	if strings.Index(req.Instructions, "[MANAGER TYPES]") > strings.Index(req.Instructions, "[DATA]") {
		t.Errorf("sections must precede the data block")
	}
	if req.Role != tmpl.Role || req.MaxOutputTokens != 600 || req.Temperature != 0.3 || req.Records != 2 {
		t.Fatalf("unexpected request fields: %+v", req)
	}
	if req.Tokens <= 0 {
		t.Fatalf("expected token estimate")
	}
}

func TestComposeRejectsEmptyPayload(t *testing.T) {
	_, err := Composer{}.Compose(nil, tmpl)
	if !errors.Is(err, payload.ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
	_, err = Composer{}.Compose(&payload.Payload{}, tmpl)
	if !errors.Is(err, payload.ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestTemplateValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Template)
	}{
		{"no role", func(t *Template) { t.Role = " " }},
		{"no instructions", func(t *Template) { t.Instructions = "" }},
		{"bad temperature", func(t *Template) { t.Temperature = 3 }},
		{"no ceiling", func(t *Template) { t.MaxOutputTokens = 0 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			bad := tmpl
			c.mut(&bad)
			if err := bad.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
	if err := tmpl.Validate(); err != nil {
		t.Fatalf("valid template rejected: %v", err)
	}
}
