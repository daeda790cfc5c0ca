package feature

import (
	"errors"
	"fmt"
	"strings"
)

// ID identifies one analytical pipeline. The set is closed; ParseID is the
// only way to obtain an ID from external input.
type ID string

const (
	Sentiment         ID = "sentiment"
	ManagerType       ID = "manager_type"
	ProhibitedWords   ID = "prohibited_words"
	TopSellers        ID = "top_sellers"
	AgentPerformance  ID = "agent_performance"
	EmotionalDynamics ID = "emotional_dynamics"
	SalesPhrases      ID = "sales_phrases"
)

var known = []ID{
	Sentiment,
	ManagerType,
	ProhibitedWords,
	TopSellers,
	AgentPerformance,
	EmotionalDynamics,
	SalesPhrases,
}

// ErrUnknownFeature is returned by ParseID for ids outside the closed set.
var ErrUnknownFeature = errors.New("unknown feature")

// IDs lists every feature id in menu order.
func IDs() []ID { return append([]ID(nil), known...) }

// ParseID maps external text to an ID. Unknown values are rejected rather
// than routed to a default feature.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	for _, id := range known {
		if string(id) == s {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFeature, s)
}

func (id ID) String() string { return string(id) }
