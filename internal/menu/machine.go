// Package menu sequences user intents into feature runs for one or more
// conversations and renders what the user sees.
package menu

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/KaramelBytes/callpulse/internal/feature"
)

// Status of one conversation.
type Status int

const (
	Idle Status = iota
	FeatureSelected
	Running
)

func (s Status) String() string {
	switch s {
	case FeatureSelected:
		return "feature_selected"
	case Running:
		return "running"
	default:
		return "idle"
	}
}

// State is the per-conversation menu state.
type State struct {
	Status  Status
	Feature feature.ID
}

// Button is a selectable action attached to a reply.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Reply is one outgoing message.
type Reply struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons,omitempty"`
}

// User-visible texts.
const (
	GreetingText = "👋 Hi! I analyse the performance of call-center staff.\n\nChoose what you want to analyse:"
	HelpText     = "ℹ️ I help analyse calls and agent results.\n\nCommands:\n/start - main menu\n/help - this help"
	MenuText     = "Choose an action:"
	ProgressText = "🧠 Analysis in progress... Please wait, this can take a few minutes."
	BusyText     = "⏳ An analysis is already running in this conversation. Please wait for its result."
	UnknownText  = "This analysis is not available."
)

var backButton = Button{Label: "⬅️ Back", Data: Back().Data()}

// Runner runs features; *feature.Registry implements it.
type Runner interface {
	Run(ctx context.Context, id feature.ID, p feature.Params) feature.Result
	Definitions() []feature.Definition
	Lookup(id feature.ID) (feature.Definition, bool)
}

type session struct {
	mu    sync.Mutex
	state State
}

// Machine holds the state of every conversation. Conversations are
// independent; within one conversation only one run may be in flight.
type Machine struct {
	runner Runner
	log    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// New returns a machine backed by runner.
func New(runner Runner, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{runner: runner, log: log, sessions: map[string]*session{}}
}

func (m *Machine) session(conv string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[conv]
	if !ok {
		s = &session{}
		m.sessions[conv] = s
	}
	return s
}

// State returns the current state of conv; unknown conversations are Idle.
func (m *Machine) State(conv string) State {
	m.mu.Lock()
	s, ok := m.sessions[conv]
	m.mu.Unlock()
	if !ok {
		return State{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reset forgets conv. A run still in flight completes and its result is
// delivered, but the conversation starts again from Idle.
func (m *Machine) Reset(conv string) {
	m.mu.Lock()
	delete(m.sessions, conv)
	m.mu.Unlock()
}

// Handle applies one intent. Replies are passed to send in order; a run
// sends a progress reply before blocking on the analysis.
func (m *Machine) Handle(ctx context.Context, conv string, in Intent, send func(Reply)) {
	s := m.session(conv)
	log := m.log.With(zap.String("conversation", conv), zap.Stringer("action", in.Action), zap.String("feature", string(in.Feature)))

	s.mu.Lock()
	if s.state.Status == Running && in.Action != ActHelp {
		s.mu.Unlock()
		log.Debug("intent while running")
		send(Reply{Text: BusyText})
		return
	}

	switch in.Action {
	case ActStart:
		s.state = State{}
		s.mu.Unlock()
		send(Reply{Text: GreetingText, Buttons: m.menuButtons()})
	case ActHelp:
		s.mu.Unlock()
		send(Reply{Text: HelpText})
	case ActBack:
		s.state = State{}
		s.mu.Unlock()
		send(Reply{Text: MenuText, Buttons: m.menuButtons()})
	case ActSelect:
		def, ok := m.runner.Lookup(in.Feature)
		if !ok {
			s.state = State{}
			s.mu.Unlock()
			send(Reply{Text: UnknownText, Buttons: m.menuButtons()})
			return
		}
		s.state = State{Status: FeatureSelected, Feature: def.ID}
		s.mu.Unlock()
		send(Reply{Text: describe(def), Buttons: []Button{backButton, runButton(def.ID)}})
	case ActRun:
		if _, ok := m.runner.Lookup(in.Feature); !ok {
			s.state = State{}
			s.mu.Unlock()
			send(Reply{Text: UnknownText, Buttons: m.menuButtons()})
			return
		}
		s.state = State{Status: Running, Feature: in.Feature}
		s.mu.Unlock()
		m.run(ctx, conv, s, in, send, log)
	default:
		s.mu.Unlock()
		send(Reply{Text: MenuText, Buttons: m.menuButtons()})
	}
}

func (m *Machine) run(ctx context.Context, conv string, s *session, in Intent, send func(Reply), log *zap.Logger) {
	finish := func() {
		s.mu.Lock()
		if s.state.Status == Running {
			s.state = State{Status: FeatureSelected, Feature: in.Feature}
		}
		s.mu.Unlock()
	}
	// the session must leave Running even if send or the runner panics
	defer finish()

	send(Reply{Text: ProgressText})
	p := in.Params
	if p.Origin == "" {
		p.Origin = conv
	}
	res := m.runner.Run(ctx, in.Feature, p)
	finish()
	log.Info("analysis delivered", zap.Stringer("kind", res.Kind), zap.String("run_id", res.RunID))
	send(Reply{Text: res.Message(), Buttons: []Button{backButton}})
}

func (m *Machine) menuButtons() []Button {
	defs := m.runner.Definitions()
	out := make([]Button, 0, len(defs))
	for _, d := range defs {
		out = append(out, Button{Label: d.Title, Data: Select(d.ID).Data()})
	}
	return out
}

func runButton(id feature.ID) Button {
	return Button{Label: "▶️ Run analysis", Data: Run(id, feature.Params{}).Data()}
}

func describe(d feature.Definition) string {
	return d.Title + "\n\n" + d.Description
}
