package constraint

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/goliatone/go-formcover/pkg/questionnaire"
)

// Kind names the family a base constraint belongs to.
type Kind string

const (
	KindDomain         Kind = "domain"
	KindDefaultVisible Kind = "default-visible"
	KindConditional    Kind = "conditional"
	KindFallback       Kind = "fallback"
	KindLinkage        Kind = "linkage"
)

// Constraint is one asserted formula of the base model.
type Constraint struct {
	Kind     Kind
	Question int
	Lit      z.Lit
}

// Fallback records a conditional question whose visibility could not be
// translated and was asserted visible instead.
type Fallback struct {
	Question int    `json:"question"`
	Reason   string `json:"reason"`
}

// SolveObserver receives one callback per satisfiability check.
type SolveObserver interface {
	ObserveSolve(purpose string, status Status, elapsed time.Duration)
}

// SolveFunc runs one check on a loaded solver and returns gini's result
// code: 1 sat, -1 unsat, 0 unknown.
type SolveFunc func(purpose string, g *gini.Gini, timeout time.Duration) int

func defaultSolve(_ string, g *gini.Gini, timeout time.Duration) int {
	if timeout > 0 {
		return g.Try(timeout)
	}
	return g.Solve()
}

// Option customises Build.
type Option func(*builderConfig)

type builderConfig struct {
	logger   *slog.Logger
	timeout  time.Duration
	observer SolveObserver
	solve    SolveFunc
}

// WithLogger routes translation warnings to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *builderConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithSolveTimeout bounds every check made through the model's contexts. A
// check that runs out of time reports Indeterminate. Zero means no bound.
func WithSolveTimeout(timeout time.Duration) Option {
	return func(cfg *builderConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithSolveObserver reports every check to observer.
func WithSolveObserver(observer SolveObserver) Option {
	return func(cfg *builderConfig) {
		cfg.observer = observer
	}
}

// WithSolveFunc replaces the call that runs each check, for example to
// route checks through a shared budget.
func WithSolveFunc(fn SolveFunc) Option {
	return func(cfg *builderConfig) {
		if fn != nil {
			cfg.solve = fn
		}
	}
}

// Model is the immutable constraint model of one form.
type Model struct {
	form           *questionnaire.Form
	classification questionnaire.Classification

	circuit   *logic.C
	encodings map[int]Encoding
	values    map[int][]z.Lit
	visible   map[int]z.Lit

	constraints []Constraint
	unreachable map[int]struct{}
	fallbacks   []Fallback

	logger   *slog.Logger
	timeout  time.Duration
	observer SolveObserver
	solve    SolveFunc
}

// Build translates form into a Model. The classification is computed from
// the form.
func Build(form *questionnaire.Form, options ...Option) (*Model, error) {
	if form == nil {
		return nil, errors.New("constraint: form is nil")
	}
	cfg := builderConfig{logger: slog.Default(), solve: defaultSolve}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	m := &Model{
		form:           form,
		classification: questionnaire.Classify(form),
		circuit:        logic.NewC(),
		encodings:      make(map[int]Encoding),
		values:         make(map[int][]z.Lit),
		visible:        make(map[int]z.Lit),
		unreachable:    make(map[int]struct{}),
		logger:         cfg.logger,
		timeout:        cfg.timeout,
		observer:       cfg.observer,
		solve:          cfg.solve,
	}

	for _, n := range m.classification.TestVariables {
		q, _ := form.Question(n)
		enc := NewEncoding(n, q.OptionValues())
		m.encodings[n] = enc
		lits := make([]z.Lit, enc.Len())
		for i := range lits {
			lits[i] = m.circuit.Lit()
		}
		m.values[n] = lits
	}
	for _, q := range form.Questions {
		if !q.Hidden {
			m.visible[q.Number] = m.circuit.Lit()
		}
	}

	m.addDomainConstraints()
	m.addVisibilityConstraints()
	m.addLinkageConstraints()

	m.logger.Debug("constraint model built",
		slog.String("form", form.Name),
		slog.Int("test_variables", len(m.classification.TestVariables)),
		slog.Int("constraints", len(m.constraints)),
		slog.Int("unreachable", len(m.unreachable)),
		slog.Int("fallbacks", len(m.fallbacks)))
	return m, nil
}

func (m *Model) assert(kind Kind, question int, lit z.Lit) {
	m.constraints = append(m.constraints, Constraint{Kind: kind, Question: question, Lit: lit})
}

// addDomainConstraints makes exactly one code literal true per testable
// variable.
func (m *Model) addDomainConstraints() {
	for _, n := range m.classification.TestVariables {
		if m.encodings[n].Dynamic() {
			continue
		}
		lits := m.values[n]
		atMostOne := make([]z.Lit, 0, len(lits)*(len(lits)-1)/2)
		for i := 0; i < len(lits); i++ {
			for j := i + 1; j < len(lits); j++ {
				atMostOne = append(atMostOne, m.circuit.Or(lits[i].Not(), lits[j].Not()))
			}
		}
		m.assert(KindDomain, n, m.and(m.circuit.Ors(lits...), m.circuit.Ands(atMostOne...)))
	}
}

func (m *Model) addVisibilityConstraints() {
	tr := translator{model: m}
	for _, q := range m.form.Questions {
		if q.Hidden {
			continue
		}
		vis := m.visible[q.Number]
		if !q.Conditional() {
			m.assert(KindDefaultVisible, q.Number, vis)
			continue
		}

		formula, ok := tr.translate(q, q.Visibility)
		if !ok {
			m.logger.Warn("constraint: visibility untranslatable, assuming visible",
				slog.Int("question", q.Number),
				slog.String("label", q.Label),
				slog.String("condition", q.Visibility.String()))
			m.fallbacks = append(m.fallbacks, Fallback{Question: q.Number, Reason: "untranslatable visibility condition"})
			m.assert(KindFallback, q.Number, vis)
			continue
		}
		if formula == m.circuit.F {
			m.unreachable[q.Number] = struct{}{}
			m.logger.Info("constraint: question can never be visible",
				slog.Int("question", q.Number), slog.String("label", q.Label))
		}
		m.assert(KindConditional, q.Number, m.iff(vis, formula))
	}
}

// addLinkageConstraints ties a variable's answer to its visibility: hidden
// means code 0, visible means any other code.
func (m *Model) addLinkageConstraints() {
	for _, n := range m.classification.TestVariables {
		if m.encodings[n].Dynamic() {
			continue
		}
		unset := m.values[n][0]
		m.assert(KindLinkage, n, m.iff(m.visible[n], unset.Not()))
	}
}

func (m *Model) and(a, b z.Lit) z.Lit {
	c := m.circuit
	switch {
	case a == c.F || b == c.F:
		return c.F
	case a == c.T:
		return b
	case b == c.T:
		return a
	}
	return c.And(a, b)
}

func (m *Model) or(a, b z.Lit) z.Lit {
	c := m.circuit
	switch {
	case a == c.T || b == c.T:
		return c.T
	case a == c.F:
		return b
	case b == c.F:
		return a
	}
	return c.Or(a, b)
}

func (m *Model) iff(a, b z.Lit) z.Lit {
	return m.and(m.or(a.Not(), b), m.or(b.Not(), a))
}

// Form returns the form the model was built from.
func (m *Model) Form() *questionnaire.Form { return m.form }

// Classification returns the question classification.
func (m *Model) Classification() questionnaire.Classification { return m.classification }

// TestVariables returns all test variable numbers in ascending order.
func (m *Model) TestVariables() []int {
	return append([]int(nil), m.classification.TestVariables...)
}

// StaticVariables returns the test variables with at least one real option,
// ascending. Dynamic-source variables are left out.
func (m *Model) StaticVariables() []int {
	out := make([]int, 0, len(m.classification.TestVariables))
	for _, n := range m.classification.TestVariables {
		if !m.encodings[n].Dynamic() {
			out = append(out, n)
		}
	}
	return out
}

// Encoding returns the value encoding of a test variable.
func (m *Model) Encoding(question int) (Encoding, bool) {
	enc, ok := m.encodings[question]
	return enc, ok
}

// Encodings returns a copy of every test variable's encoding.
func (m *Model) Encodings() map[int]Encoding {
	out := make(map[int]Encoding, len(m.encodings))
	for k, v := range m.encodings {
		out[k] = v
	}
	return out
}

// Unreachable returns the structurally unreachable questions, ascending.
func (m *Model) Unreachable() []int {
	out := make([]int, 0, len(m.unreachable))
	for n := range m.unreachable {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// IsUnreachable reports whether question can never be visible.
func (m *Model) IsUnreachable(question int) bool {
	_, ok := m.unreachable[question]
	return ok
}

// Reachable returns the coverage target: non-hidden questions that are not
// structurally unreachable, ascending.
func (m *Model) Reachable() []int {
	visible := m.form.Visible()
	out := make([]int, 0, len(visible))
	for _, n := range visible {
		if !m.IsUnreachable(n) {
			out = append(out, n)
		}
	}
	return out
}

// Constraints returns a copy of the base constraint list.
func (m *Model) Constraints() []Constraint {
	return append([]Constraint(nil), m.constraints...)
}

// Fallbacks returns the questions asserted visible because their condition
// could not be translated.
func (m *Model) Fallbacks() []Fallback {
	return append([]Fallback(nil), m.fallbacks...)
}

// Logger returns the logger the model was built with.
func (m *Model) Logger() *slog.Logger { return m.logger }
