package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/callpulse/internal/payload"
	"github.com/KaramelBytes/callpulse/internal/utils"
)

// Template is the fixed per-feature instruction set.
type Template struct {
	Role            string
	Instructions    string
	Temperature     float64
	MaxOutputTokens int
}

// Validate checks the template is usable for dispatch.
func (t Template) Validate() error {
	if strings.TrimSpace(t.Role) == "" {
		return errors.New("template role preamble is empty")
	}
	if strings.TrimSpace(t.Instructions) == "" {
		return errors.New("template instructions are empty")
	}
	if t.Temperature < 0 || t.Temperature > 2 {
		return fmt.Errorf("template temperature %.2f out of range [0,2]", t.Temperature)
	}
	if t.MaxOutputTokens <= 0 {
		return fmt.Errorf("template response ceiling must be positive, got %d", t.MaxOutputTokens)
	}
	return nil
}

// Section is extra reference material placed between the instructions
// and the data, e.g. a catalogue of manager types.
type Section struct {
	Title string
	Body  string
}

// Request is the immutable unit handed to the dispatcher.
type Request struct {
	Role            string
	Instructions    string
	Temperature     float64
	MaxOutputTokens int
	// Records is the number of payload records embedded in Instructions.
	Records int
	// Tokens estimates the size of Role plus Instructions.
	Tokens int
}

// Composer merges templates with payloads.
type Composer struct {
	// Language the report is requested in; empty leaves it to the model.
	Language string
}

// Compose builds the request. The payload is embedded verbatim as JSON.
func (c Composer) Compose(p *payload.Payload, t Template, sections ...Section) (Request, error) {
	if err := t.Validate(); err != nil {
		return Request{}, err
	}
	if p == nil || p.Len() == 0 {
		return Request{}, payload.ErrEmptyPayload
	}
	data, err := p.JSON()
	if err != nil {
		return Request{}, fmt.Errorf("serialize payload: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("[INSTRUCTIONS]\n")
	sb.WriteString(strings.TrimSpace(t.Instructions))
	sb.WriteString("\n")
	if lang := strings.TrimSpace(c.Language); lang != "" {
		sb.WriteString("Write the report in ")
		sb.WriteString(lang)
		sb.WriteString(".\n")
	}
	sb.WriteString("\n")
	for _, s := range sections {
		if strings.TrimSpace(s.Body) == "" {
			continue
		}
		sb.WriteString("[")
		sb.WriteString(strings.ToUpper(s.Title))
		sb.WriteString("]\n")
		sb.WriteString(strings.TrimSpace(s.Body))
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "[DATA] (%d records, JSON)\n", p.Len())
	sb.WriteString(data)
	sb.WriteString("\n")

	role := strings.TrimSpace(t.Role)
	text := sb.String()
	return Request{
		Role:            role,
		Instructions:    text,
		Temperature:     t.Temperature,
		MaxOutputTokens: t.MaxOutputTokens,
		Records:         p.Len(),
		Tokens:          utils.CountTokens(role) + utils.CountTokens(text),
	}, nil
}
