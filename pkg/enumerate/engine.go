package enumerate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-formcover/pkg/constraint"
	"github.com/goliatone/go-formcover/pkg/validator"
)

var tracer = otel.Tracer("formcover.enumerate")

// Phase identifies which search phase produced a candidate.
type Phase int

const (
	PhaseGatekeeper Phase = 1
	PhaseSynthesis  Phase = 3
)

// Candidate is one valid answer combination and the questions it shows.
type Candidate struct {
	Assignment constraint.Assignment `json:"assignment"`
	// Complete uses constraint.Unset for variables the combination hides.
	Complete constraint.Assignment `json:"complete"`
	Visible  []int                 `json:"visible"`
	Phase    Phase                 `json:"phase"`
}

// Result is the output of Run.
type Result struct {
	Candidates  []Candidate
	Gatekeepers []Gatekeeper
	// Sampled is true when phase 1 fell back to the bounded cross product.
	Sampled bool
	Seed    uint64
	// Tested counts the phase 1 combinations handed to the validator.
	Tested int
	// Uncovered is the phase 2 gap before synthesis.
	Uncovered []int
	// Synthesized counts phase 3 candidates.
	Synthesized int
	// CombinatoriallyUnreachable lists questions the solver proved cannot be
	// shown together with the base constraints.
	CombinatoriallyUnreachable []int
	// Indeterminate lists questions whose synthesis check did not finish.
	Indeterminate []int
}

// Engine runs the search over one model. Engines are single-use values and
// hold no state between runs other than their configuration.
type Engine struct {
	model          *constraint.Model
	maxSamples     int
	maxGatekeepers int
	minControlled  int
	seed           uint64
	logger         *slog.Logger
}

// New builds an Engine with defaults applied.
func New(model *constraint.Model, options ...Option) *Engine {
	e := &Engine{
		model:          model,
		maxSamples:     DefaultMaxSamples,
		maxGatekeepers: DefaultMaxGatekeepers,
		minControlled:  DefaultMinControlled,
		logger:         slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Run executes the three phases. It returns early with ctx's error when the
// context is cancelled between checks.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	if e.model == nil {
		return Result{}, errors.New("enumerate: model is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	seed := e.seed
	if seed == 0 {
		seed = rand.Uint64() | 1
	}
	res := Result{Seed: seed}

	ctx, span := tracer.Start(ctx, "enumerate.Run",
		trace.WithAttributes(
			attribute.String("form", e.model.Form().Name),
			attribute.Int("test_variables", len(e.model.TestVariables())),
		),
	)
	defer span.End()

	if err := e.phaseOne(ctx, &res); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	res.Uncovered = e.phaseTwo(res.Candidates)
	if err := e.phaseThree(ctx, &res); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}

	span.SetAttributes(
		attribute.Int("candidates", len(res.Candidates)),
		attribute.Int("synthesized", res.Synthesized),
		attribute.Int("combinatorially_unreachable", len(res.CombinatoriallyUnreachable)),
	)
	e.logger.Info("enumeration finished",
		slog.Int("candidates", len(res.Candidates)),
		slog.Int("tested", res.Tested),
		slog.Int("synthesized", res.Synthesized),
		slog.Int("still_uncovered", len(res.CombinatoriallyUnreachable)+len(res.Indeterminate)))
	return res, nil
}

// eligible returns the test variables phase 1 may assign: static variables
// that are not structurally unreachable.
func (e *Engine) eligible() ([]domain, map[int]bool) {
	var domains []domain
	set := make(map[int]bool)
	for _, n := range e.model.StaticVariables() {
		if e.model.IsUnreachable(n) {
			continue
		}
		enc, _ := e.model.Encoding(n)
		domains = append(domains, domain{question: n, values: enc.Values()})
		set[n] = true
	}
	return domains, set
}

func (e *Engine) phaseOne(ctx context.Context, res *Result) error {
	ctx, span := tracer.Start(ctx, "enumerate.Phase1")
	defer span.End()

	domains, eligible := e.eligible()
	byQuestion := make(map[int]domain, len(domains))
	for _, d := range domains {
		byQuestion[d.question] = d
	}

	res.Gatekeepers = rankGatekeepers(e.model.Form(), eligible, e.maxGatekeepers, e.minControlled)

	var combos []constraint.Assignment
	if len(res.Gatekeepers) > 0 {
		for _, gk := range res.Gatekeepers {
			group := []domain{byQuestion[gk.Question]}
			for _, dep := range gk.Dependencies {
				group = append(group, byQuestion[dep])
			}
			product := crossProduct(group)
			e.logger.Info("phase 1: gatekeeper product",
				slog.Int("gatekeeper", gk.Question),
				slog.String("label", gk.Label),
				slog.Int("controlled", len(gk.Controlled)),
				slog.Int("dependencies", len(gk.Dependencies)),
				slog.Int("combinations", len(product)))
			combos = append(combos, product...)
		}
	} else if len(domains) > 0 {
		total, ok := productSize(domains)
		if !ok || total > uint64(e.maxSamples) {
			res.Sampled = true
			combos = sampleProduct(domains, e.maxSamples, newRand(res.Seed))
			e.logger.Info("phase 1: no gatekeepers, sampling cross product",
				slog.Int("samples", len(combos)),
				slog.Uint64("seed", res.Seed))
		} else {
			combos = crossProduct(domains)
			e.logger.Info("phase 1: no gatekeepers, full cross product",
				slog.Int("combinations", len(combos)))
		}
	}

	seen := make(map[string]struct{}, len(combos))
	for _, combo := range combos {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("enumerate: phase 1: %w", err)
		}
		key := assignmentKey(combo)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		res.Tested++
		out := validator.ValidateFor("enumerate", combo, e.model)
		if !out.OK {
			e.logger.Debug("phase 1: combination rejected",
				slog.Any("assignment", combo), slog.String("reason", out.Reason))
			continue
		}
		res.Candidates = append(res.Candidates, Candidate{
			Assignment: combo.Clone(),
			Complete:   out.Complete,
			Visible:    out.Visible,
			Phase:      PhaseGatekeeper,
		})
	}

	span.SetAttributes(
		attribute.Int("gatekeepers", len(res.Gatekeepers)),
		attribute.Int("tested", res.Tested),
		attribute.Int("valid", len(res.Candidates)),
		attribute.Bool("sampled", res.Sampled),
	)
	return nil
}

// phaseTwo returns the reachable questions no candidate shows, ascending.
func (e *Engine) phaseTwo(candidates []Candidate) []int {
	covered := make(map[int]struct{})
	for _, c := range candidates {
		for _, n := range c.Visible {
			covered[n] = struct{}{}
		}
	}
	var out []int
	for _, n := range e.model.Reachable() {
		if _, ok := covered[n]; !ok {
			out = append(out, n)
		}
	}
	e.logger.Info("phase 2: coverage",
		slog.Int("reachable", len(e.model.Reachable())),
		slog.Int("uncovered", len(out)))
	return out
}

func (e *Engine) phaseThree(ctx context.Context, res *Result) error {
	ctx, span := tracer.Start(ctx, "enumerate.Phase3",
		trace.WithAttributes(attribute.Int("uncovered", len(res.Uncovered))))
	defer span.End()

	covered := make(map[int]struct{})
	for _, target := range res.Uncovered {
		if _, ok := covered[target]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("enumerate: phase 3: %w", err)
		}

		sctx := e.model.NewContext("synthesize")
		if err := sctx.RequireVisible(target); err != nil {
			return fmt.Errorf("enumerate: phase 3: %w", err)
		}
		switch sctx.Check() {
		case constraint.Sat:
			sol, err := sctx.Solution()
			if err != nil {
				return fmt.Errorf("enumerate: phase 3: %w", err)
			}
			res.Candidates = append(res.Candidates, Candidate{
				Assignment: answered(sol.Complete),
				Complete:   sol.Complete,
				Visible:    sol.Visible,
				Phase:      PhaseSynthesis,
			})
			res.Synthesized++
			for _, n := range sol.Visible {
				covered[n] = struct{}{}
			}
		case constraint.Unsat:
			res.CombinatoriallyUnreachable = append(res.CombinatoriallyUnreachable, target)
			e.logger.Warn("phase 3: question cannot be shown by any combination",
				slog.Int("question", target))
		default:
			res.Indeterminate = append(res.Indeterminate, target)
			e.logger.Warn("phase 3: solver indeterminate", slog.Int("question", target))
		}
	}

	span.SetAttributes(attribute.Int("synthesized", res.Synthesized))
	return nil
}

// answered drops Unset entries.
func answered(complete constraint.Assignment) constraint.Assignment {
	out := make(constraint.Assignment, len(complete))
	for k, v := range complete {
		if v != constraint.Unset {
			out[k] = v
		}
	}
	return out
}
