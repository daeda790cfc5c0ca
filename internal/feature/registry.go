// Package feature maps feature ids to analysis pipelines and runs them:
// load, normalize, join, bound, compose, dispatch.
package feature

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/callpulse/internal/dispatch"
	"github.com/KaramelBytes/callpulse/internal/payload"
	"github.com/KaramelBytes/callpulse/internal/prompt"
	"github.com/KaramelBytes/callpulse/internal/table"
)

// Params are the per-run knobs a user may supply.
type Params struct {
	// ManagerID restricts features that support it to one manager.
	ManagerID string
	// TopN overrides the number of top sellers; 0 uses the default.
	TopN int
	// Origin tags the run in logs and the journal, e.g. "cli" or "http:<id>".
	Origin string
}

// JoinStep enriches the primary table with another source.
type JoinStep struct {
	Source string
	Key    table.JoinKey
	Kind   table.JoinKind
	// Optional joins run against an empty table when the source file is absent.
	Optional bool
}

// Stage is the working state handed to a definition's hooks.
type Stage struct {
	Params Params
	// Tables holds every loaded source after normalization.
	Tables map[string]*table.Table
	// Data is the primary table after joins; Prepare may replace it.
	Data *table.Table
	// Sections are added to the prompt between instructions and data.
	Sections []prompt.Section
}

// Definition is one registry entry.
type Definition struct {
	ID          ID
	Title       string
	Description string
	// Sources are loaded concurrently; the first is the primary table.
	Sources   []string
	Normalize map[string]table.Rules
	Joins     []JoinStep
	// Prepare narrows Data and adds prompt sections. A non-empty notice
	// ends the run as KindNoData without dispatching.
	Prepare func(s *Stage) (notice string, err error)
	// Local computes the report in-process instead of dispatching.
	Local    func(s *Stage) (string, error)
	Payload  func(p Params) payload.Spec
	Template prompt.Template
	// Empty is shown when no record qualifies for analysis.
	Empty string
}

func (d Definition) validate() error {
	if _, err := ParseID(string(d.ID)); err != nil {
		return err
	}
	if len(d.Sources) == 0 {
		return fmt.Errorf("feature %s: no sources", d.ID)
	}
	if d.Local != nil {
		return nil
	}
	if d.Payload == nil {
		return fmt.Errorf("feature %s: no payload spec", d.ID)
	}
	if err := d.Template.Validate(); err != nil {
		return fmt.Errorf("feature %s: %w", d.ID, err)
	}
	return nil
}

// Dispatcher is the part of dispatch.Dispatcher the registry uses.
type Dispatcher interface {
	Dispatch(ctx context.Context, req prompt.Request) dispatch.Result
}

// Recorder persists run metadata; failures to record are logged only.
type Recorder interface {
	Record(ctx context.Context, r Result, p Params, at time.Time) error
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(r *Registry) { r.log = l } }

// WithRecorder sets the run journal.
func WithRecorder(rec Recorder) Option { return func(r *Registry) { r.recorder = rec } }

// Registry holds the closed set of features. It is safe for concurrent
// runs once constructed.
type Registry struct {
	loader     table.Loader
	sources    Sources
	composer   prompt.Composer
	dispatcher Dispatcher
	log        *zap.Logger
	recorder   Recorder

	defs  map[ID]Definition
	order []ID
}

// NewRegistry builds a registry holding every built-in feature.
func NewRegistry(loader table.Loader, sources Sources, composer prompt.Composer, d Dispatcher, opts ...Option) (*Registry, error) {
	r := &Registry{
		loader:     loader,
		sources:    sources,
		composer:   composer,
		dispatcher: d,
		log:        zap.NewNop(),
		defs:       map[ID]Definition{},
	}
	for _, o := range opts {
		o(r)
	}
	for _, def := range builtins() {
		if err := r.register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(d Definition) error {
	if err := d.validate(); err != nil {
		return err
	}
	if _, dup := r.defs[d.ID]; dup {
		return fmt.Errorf("feature %s registered twice", d.ID)
	}
	for _, name := range d.sourceNames() {
		if _, ok := r.sources[name]; !ok {
			return fmt.Errorf("feature %s: unknown source %q", d.ID, name)
		}
	}
	r.defs[d.ID] = d
	r.order = append(r.order, d.ID)
	return nil
}

func (d Definition) sourceNames() []string {
	names := append([]string(nil), d.Sources...)
	for _, j := range d.Joins {
		names = append(names, j.Source)
	}
	return names
}

// Lookup returns the definition for id.
func (r *Registry) Lookup(id ID) (Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// Definitions lists features in registration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.defs[id])
	}
	return out
}

// Run executes the pipeline for id. Every outcome, including panics in a
// stage, is returned as a Result.
func (r *Registry) Run(ctx context.Context, id ID, p Params) (res Result) {
	start := time.Now()
	runID := uuid.NewString()
	log := r.log.With(zap.String("run_id", runID), zap.String("feature", string(id)), zap.String("origin", p.Origin))

	defer func() {
		if v := recover(); v != nil {
			res = Result{Kind: KindFailure, Cause: fmt.Sprintf("internal error: %v", v)}
			log.Error("feature run panicked", zap.Any("panic", v), zap.Stack("stack"))
		}
		res.Feature = id
		res.RunID = runID
		res.Duration = time.Since(start)
		fields := []zap.Field{
			zap.Stringer("kind", res.Kind),
			zap.Int("records", res.Records),
			zap.Duration("elapsed", res.Duration),
		}
		if res.Kind == KindFailure || res.Kind == KindDataError {
			log.Warn("feature run failed", append(fields, zap.String("cause", res.Cause))...)
		} else {
			log.Info("feature run finished", fields...)
		}
		if r.recorder != nil {
			if err := r.recorder.Record(context.WithoutCancel(ctx), res, p, start); err != nil {
				log.Warn("record run", zap.Error(err))
			}
		}
	}()

	def, ok := r.defs[id]
	if !ok {
		return Result{Kind: KindFailure, Cause: fmt.Sprintf("%v: %q", ErrUnknownFeature, id)}
	}
	return r.run(ctx, def, p, log)
}

func (r *Registry) run(ctx context.Context, def Definition, p Params, log *zap.Logger) Result {
	tables, err := r.load(ctx, def)
	if err != nil {
		return fromError(err, def.Empty)
	}
	for name, t := range tables {
		if rules, ok := def.Normalize[name]; ok {
			tables[name] = table.Normalize(t, rules)
		}
	}

	st := &Stage{Params: p, Tables: tables, Data: tables[def.Sources[0]]}
	for _, j := range def.Joins {
		joined, err := table.Join(st.Data, tables[j.Source], j.Key, j.Kind)
		if err != nil {
			return fromError(err, def.Empty)
		}
		st.Data = joined
	}
	log.Debug("sources ready", zap.Int("rows", st.Data.Len()), zap.Strings("columns", st.Data.Columns))

	if def.Prepare != nil {
		notice, err := def.Prepare(st)
		if err != nil {
			return fromError(err, def.Empty)
		}
		if notice != "" {
			return Result{Kind: KindNoData, Text: notice}
		}
	}

	if def.Local != nil {
		text, err := def.Local(st)
		if err != nil {
			return fromError(err, def.Empty)
		}
		return Result{Kind: KindReport, Text: text, Records: st.Data.Len()}
	}

	pl, err := payload.Build(st.Data, def.Payload(p))
	if err != nil {
		return fromError(err, def.Empty)
	}
	log.Debug("payload built",
		zap.Int("records", pl.Len()),
		zap.Int("qualified", pl.Qualified),
		zap.Int("truncated_fields", pl.Truncated),
		zap.Int("dropped_for_budget", pl.Dropped))

	req, err := r.composer.Compose(pl, def.Template, st.Sections...)
	if err != nil {
		return fromError(err, def.Empty)
	}
	if r.dispatcher == nil {
		return Result{Kind: KindFailure, Cause: "no reasoning service configured", Records: pl.Len()}
	}
	out := r.dispatcher.Dispatch(ctx, req)
	if !out.OK() {
		return Result{Kind: KindFailure, Cause: out.Cause, Records: pl.Len()}
	}
	return Result{Kind: KindReport, Text: out.Text, Records: pl.Len()}
}

// load reads every source the definition needs, concurrently.
func (r *Registry) load(ctx context.Context, def Definition) (map[string]*table.Table, error) {
	type job struct {
		name     string
		optional bool
	}
	var jobs []job
	seen := map[string]bool{}
	for _, s := range def.Sources {
		if !seen[s] {
			seen[s] = true
			jobs = append(jobs, job{name: s})
		}
	}
	for _, j := range def.Joins {
		if !seen[j.Source] {
			seen[j.Source] = true
			jobs = append(jobs, job{name: j.Source, optional: j.Optional})
		}
	}

	loaded := make([]*table.Table, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		d := r.sources[j.name]
		g.Go(func() error {
			t, err := r.loader.Load(gctx, d)
			if err != nil && j.optional && errors.Is(err, fs.ErrNotExist) {
				t, err = table.New(d.Name, d.Schema, d.Schema.Names(), nil), nil
			}
			if err != nil {
				return fmt.Errorf("load %s: %w", j.name, err)
			}
			loaded[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string]*table.Table, len(jobs))
	for i, j := range jobs {
		out[j.name] = loaded[i]
	}
	return out, nil
}

// fromError converts a stage error into a Result variant.
func fromError(err error, empty string) Result {
	var (
		schemaErr *table.SchemaError
		joinErr   *table.JoinSchemaError
	)
	switch {
	case errors.Is(err, payload.ErrEmptyPayload):
		if empty == "" {
			empty = "❌ No data to analyse."
		}
		return Result{Kind: KindNoData, Text: empty}
	case errors.As(err, &schemaErr):
		return Result{Kind: KindDataError, Text: schemaErr.Error(), Cause: err.Error()}
	case errors.As(err, &joinErr):
		return Result{Kind: KindDataError, Text: joinErr.Error(), Cause: err.Error()}
	default:
		return Result{Kind: KindFailure, Cause: err.Error()}
	}
}
