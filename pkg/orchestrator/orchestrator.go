package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	internalLoader "github.com/goliatone/go-formcover/internal/loader"
	"github.com/goliatone/go-formcover/pkg/constraint"
	"github.com/goliatone/go-formcover/pkg/cover"
	"github.com/goliatone/go-formcover/pkg/enumerate"
	"github.com/goliatone/go-formcover/pkg/plan"
	"github.com/goliatone/go-formcover/pkg/questionnaire"
	"github.com/goliatone/go-formcover/pkg/report"
	"github.com/goliatone/go-formcover/pkg/source"
)

var tracer = otel.Tracer("formcover.orchestrator")

var (
	// ErrNoTestVariables means the form has no question that gates another,
	// so there is nothing to branch on.
	ErrNoTestVariables = errors.New("orchestrator: form has no test variables")
	// ErrNoValidAssignments means no answer combination satisfied the form.
	ErrNoValidAssignments = errors.New("orchestrator: no valid answer combinations found")
)

// PlanObserver is notified of every generated plan.
type PlanObserver interface {
	ObservePlan(p *plan.Plan)
}

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom form loader.
func WithLoader(loader source.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithLoaderOptions configures the default loader (fs.FS, HTTP).
func WithLoaderOptions(options ...source.LoaderOption) Option {
	return func(o *Orchestrator) {
		o.loaderOptions = append(o.loaderOptions, options...)
	}
}

// WithLogger sets the logger shared by every stage.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithModelOptions forwards options to constraint.Build.
func WithModelOptions(options ...constraint.Option) Option {
	return func(o *Orchestrator) {
		o.modelOptions = append(o.modelOptions, options...)
	}
}

// WithEngineOptions forwards options to enumerate.New.
func WithEngineOptions(options ...enumerate.Option) Option {
	return func(o *Orchestrator) {
		o.engineOptions = append(o.engineOptions, options...)
	}
}

// WithSolveObserver reports every solver check.
func WithSolveObserver(observer constraint.SolveObserver) Option {
	return func(o *Orchestrator) {
		o.solveObserver = observer
	}
}

// WithPlanObserver reports every generated plan.
func WithPlanObserver(observer PlanObserver) Option {
	return func(o *Orchestrator) {
		o.planObserver = observer
	}
}

// WithTransformer registers a Transformer that runs on the decoded form
// before the model is built.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithRegistry injects a report renderer registry.
func WithRegistry(registry *report.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer Render uses when no name is
// given.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// Orchestrator coordinates the full pipeline from form document to plan. It
// applies defaults (file/fs loader, text renderer) while staying open to
// dependency injection.
type Orchestrator struct {
	loader          source.Loader
	loaderOptions   []source.LoaderOption
	logger          *slog.Logger
	modelOptions    []constraint.Option
	engineOptions   []enumerate.Option
	solveObserver   constraint.SolveObserver
	planObserver    PlanObserver
	transformer     Transformer
	registry        *report.Registry
	defaultRenderer string
	initialiseErr   error
	defaultsApplied bool
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{defaultRenderer: report.DefaultRenderer}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one generation run. Exactly one of Form, Document or
// Source is needed; they are consulted in that order.
type Request struct {
	Source   source.Source
	Document *source.Document
	Form     *questionnaire.Form
}

// Generate loads the form, builds the constraint model, runs the
// enumeration engine and selects the test suite. Forms without test
// variables and runs without any valid combination return
// ErrNoTestVariables and ErrNoValidAssignments respectively.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*plan.Plan, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "orchestrator.Generate")
	defer span.End()
	fail := func(err error) (*plan.Plan, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := time.Now()
	model, err := o.Model(ctx, req)
	if err != nil {
		return fail(err)
	}
	span.SetAttributes(
		attribute.String("form", model.Form().Name),
		attribute.Int("questions", len(model.Form().Questions)),
	)
	if len(model.StaticVariables()) == 0 {
		o.logger.Warn("form has no test variables", slog.String("form", model.Form().Name))
		return fail(ErrNoTestVariables)
	}

	engineOptions := append([]enumerate.Option{enumerate.WithLogger(o.logger)}, o.engineOptions...)
	res, err := enumerate.New(model, engineOptions...).Run(ctx)
	if err != nil {
		return fail(fmt.Errorf("orchestrator: enumerate: %w", err))
	}
	if len(res.Candidates) == 0 {
		o.logger.Warn("no valid answer combinations", slog.String("form", model.Form().Name))
		return fail(ErrNoValidAssignments)
	}

	_, coverSpan := tracer.Start(ctx, "cover.Select", trace.WithAttributes(attribute.Int("candidates", len(res.Candidates))))
	sel := cover.Select(res.Candidates, model.Reachable())
	coverSpan.SetAttributes(attribute.Int("cases", len(sel.Cases)), attribute.Int("uncovered", len(sel.Uncovered)))
	coverSpan.End()

	p := plan.New(model, res, sel)
	o.logger.Info("test plan generated",
		slog.String("run_id", p.RunID),
		slog.String("form", p.FormName),
		slog.Int("cases", p.Stats.Cases),
		slog.Float64("coverage", p.Stats.Coverage),
		slog.Int("uncovered", len(p.Uncovered)),
		slog.Uint64("seed", p.Seed),
		slog.Duration("elapsed", time.Since(start)))
	if o.planObserver != nil {
		o.planObserver.ObservePlan(p)
	}
	span.SetAttributes(attribute.Int("cases", p.Stats.Cases), attribute.Float64("coverage", p.Stats.Coverage))
	return p, nil
}

// Model runs the pipeline up to the constraint model. The validate and
// explore commands use it directly.
func (o *Orchestrator) Model(ctx context.Context, req Request) (*constraint.Model, error) {
	form, err := o.resolveForm(ctx, req)
	if err != nil {
		return nil, err
	}
	if o.transformer != nil {
		if err := o.transformer.Transform(ctx, form); err != nil {
			return nil, fmt.Errorf("orchestrator: transform form: %w", err)
		}
	}

	modelOptions := []constraint.Option{constraint.WithLogger(o.logger)}
	if o.solveObserver != nil {
		modelOptions = append(modelOptions, constraint.WithSolveObserver(o.solveObserver))
	}
	modelOptions = append(modelOptions, o.modelOptions...)
	model, err := constraint.Build(form, modelOptions...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build model: %w", err)
	}
	return model, nil
}

// Render writes p with the named renderer, or the default one when name is
// empty.
func (o *Orchestrator) Render(ctx context.Context, p *plan.Plan, name string, w io.Writer) error {
	if o.registry == nil {
		return errors.New("orchestrator: renderer registry is nil")
	}
	target := name
	if target == "" {
		target = o.defaultRenderer
	}
	renderer, err := o.registry.Get(target)
	if err != nil {
		return fmt.Errorf("orchestrator: renderer %q: %w", target, err)
	}
	if err := renderer.Render(ctx, p, w); err != nil {
		return fmt.Errorf("orchestrator: render %s: %w", target, err)
	}
	return nil
}

// Registry exposes the renderer registry.
func (o *Orchestrator) Registry() *report.Registry {
	return o.registry
}

func (o *Orchestrator) resolveForm(ctx context.Context, req Request) (*questionnaire.Form, error) {
	if req.Form != nil {
		clone := *req.Form
		clone.Questions = append([]questionnaire.Question(nil), req.Form.Questions...)
		return &clone, nil
	}

	var doc source.Document
	switch {
	case req.Document != nil:
		doc = *req.Document
	case req.Source != nil:
		loaded, err := o.loader.Load(ctx, req.Source)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: load document: %w", err)
		}
		doc = loaded
	default:
		return nil, errors.New("orchestrator: source, document or form is required")
	}

	form, err := questionnaire.Decode(doc.Raw(), questionnaire.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: decode %s: %w", doc.Location(), err)
	}
	return form, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.defaultsApplied {
		return
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.loader == nil {
		o.loader = internalLoader.New(source.NewLoaderOptions(o.loaderOptions...))
	}
	if o.registry == nil {
		registry, err := report.NewDefaultRegistry()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderers: %w", err)
		}
		o.registry = registry
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = report.DefaultRenderer
	}
	o.defaultsApplied = true
}
