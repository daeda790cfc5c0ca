package menu

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/KaramelBytes/callpulse/internal/feature"
)

// Action is the kind of a user intent.
type Action int

const (
	ActStart Action = iota
	ActHelp
	ActSelect
	ActRun
	ActBack
)

func (a Action) String() string {
	switch a {
	case ActStart:
		return "start"
	case ActHelp:
		return "help"
	case ActSelect:
		return "select"
	case ActRun:
		return "run"
	default:
		return "back"
	}
}

// Intent is one discrete user action. Select and Run carry a feature id.
type Intent struct {
	Action  Action
	Feature feature.ID
	Params  feature.Params
}

// Start, Help, Back, Select and Run build intents.
func Start() Intent { return Intent{Action: ActStart} }
func Help() Intent { return Intent{Action: ActHelp} }
func Back() Intent { return Intent{Action: ActBack} }
func Select(id feature.ID) Intent { return Intent{Action: ActSelect, Feature: id} }
func Run(id feature.ID, p feature.Params) Intent {
	return Intent{Action: ActRun, Feature: id, Params: p}
}

// ParseIntent decodes button data or a typed command:
//
//	start, /start, help, /help, back
//	select:<feature>
//	run:<feature>[?manager=<id>&top=<n>]
func ParseIntent(data string) (Intent, error) {
	data = strings.TrimSpace(data)
	switch strings.ToLower(strings.TrimPrefix(data, "/")) {
	case "start", "menu":
		return Start(), nil
	case "help":
		return Help(), nil
	case "back":
		return Back(), nil
	}
	verb, rest, ok := strings.Cut(data, ":")
	if !ok {
		return Intent{}, fmt.Errorf("unrecognised intent %q", data)
	}
	rawID, query, _ := strings.Cut(rest, "?")
	id, err := feature.ParseID(rawID)
	if err != nil {
		return Intent{}, err
	}
	switch verb {
	case "select":
		if query != "" {
			return Intent{}, fmt.Errorf("select intent takes no parameters: %q", data)
		}
		return Select(id), nil
	case "run":
		p, err := parseParams(query)
		if err != nil {
			return Intent{}, err
		}
		return Run(id, p), nil
	default:
		return Intent{}, fmt.Errorf("unrecognised intent %q", data)
	}
}

func parseParams(query string) (feature.Params, error) {
	var p feature.Params
	if query == "" {
		return p, nil
	}
	vals, err := url.ParseQuery(query)
	if err != nil {
		return p, fmt.Errorf("parse run parameters: %w", err)
	}
	p.ManagerID = strings.TrimSpace(vals.Get("manager"))
	if top := vals.Get("top"); top != "" {
		n, err := strconv.Atoi(top)
		if err != nil || n <= 0 {
			return p, fmt.Errorf("top must be a positive integer, got %q", top)
		}
		p.TopN = n
	}
	return p, nil
}

// Data encodes the intent in the form ParseIntent accepts.
func (i Intent) Data() string {
	switch i.Action {
	case ActSelect:
		return "select:" + string(i.Feature)
	case ActRun:
		s := "run:" + string(i.Feature)
		q := url.Values{}
		if i.Params.ManagerID != "" {
			q.Set("manager", i.Params.ManagerID)
		}
		if i.Params.TopN > 0 {
			q.Set("top", strconv.Itoa(i.Params.TopN))
		}
		if len(q) > 0 {
			s += "?" + q.Encode()
		}
		return s
	default:
		return i.Action.String()
	}
}
