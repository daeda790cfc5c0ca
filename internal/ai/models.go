package ai

import "sort"

// ModelInfo is the context window of a model, used to reject prompts that
// cannot fit before a request is sent.
type ModelInfo struct {
	Name          string
	ContextTokens int
}

var models = map[string]ModelInfo{
	"openai/gpt-4o-mini":               {Name: "openai/gpt-4o-mini", ContextTokens: 128000},
	"openai/gpt-4o":                    {Name: "openai/gpt-4o", ContextTokens: 128000},
	"gpt-4o-mini":                      {Name: "gpt-4o-mini", ContextTokens: 128000},
	"gpt-4o":                           {Name: "gpt-4o", ContextTokens: 128000},
	"anthropic/claude-3.5-sonnet":      {Name: "anthropic/claude-3.5-sonnet", ContextTokens: 200000},
	"deepseek/deepseek-chat":           {Name: "deepseek/deepseek-chat", ContextTokens: 64000},
	"google/gemini-2.0-flash-001":      {Name: "google/gemini-2.0-flash-001", ContextTokens: 1000000},
	"gemini-2.0-flash":                 {Name: "gemini-2.0-flash", ContextTokens: 1000000},
	"gemini-1.5-pro":                   {Name: "gemini-1.5-pro", ContextTokens: 2000000},
	"meta-llama/llama-3.1-8b-instruct": {Name: "meta-llama/llama-3.1-8b-instruct", ContextTokens: 131072},
	"llama3.1:8b":                      {Name: "llama3.1:8b", ContextTokens: 8192},
	"llama3:latest":                    {Name: "llama3:latest", ContextTokens: 8192},
	"mistral:7b-instruct":              {Name: "mistral:7b-instruct", ContextTokens: 8192},
	"phi3:mini-4k-instruct":            {Name: "phi3:mini-4k-instruct", ContextTokens: 4096},
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// Catalog returns the known models sorted by name.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, mi := range models {
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
