package constraint

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

// Assignment maps test variable numbers to chosen option values.
type Assignment map[int]string

// Clone returns an independent copy.
func (a Assignment) Clone() Assignment {
	if a == nil {
		return nil
	}
	out := make(Assignment, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Keys returns the assigned question numbers in ascending order.
func (a Assignment) Keys() []int {
	out := make([]int, 0, len(a))
	for k := range a {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// Solution is the decoded model of a satisfiable check.
type Solution struct {
	// Visible lists the visible non-hidden questions, ascending.
	Visible []int
	// Complete holds every static test variable's value. Hidden variables
	// decode to Unset rather than being left out.
	Complete Assignment
}

// Context is a disposable solving session over a Model. Additions stay in
// the context; the model's base constraints are never touched. A Context is
// not safe for concurrent use.
type Context struct {
	model   *Model
	purpose string
	extra   []z.Lit
	solver  *gini.Gini
	status  Status
	solved  bool
}

// NewContext opens a solving context. purpose labels the checks for
// observers ("validate", "synthesize", ...).
func (m *Model) NewContext(purpose string) *Context {
	return &Context{model: m, purpose: purpose}
}

// AssumeValue adds `question == value`.
func (ctx *Context) AssumeValue(question int, value string) error {
	enc, ok := ctx.model.encodings[question]
	if !ok {
		return fmt.Errorf("constraint: question %d is not a test variable", question)
	}
	code, ok := enc.Encode(value)
	if !ok {
		return fmt.Errorf("constraint: %q is not an option of question %d", value, question)
	}
	ctx.add(ctx.model.values[question][code])
	return nil
}

// RequireVisible adds `visible(question) == true`.
func (ctx *Context) RequireVisible(question int) error {
	lit, ok := ctx.model.visible[question]
	if !ok {
		return fmt.Errorf("constraint: question %d has no visibility variable", question)
	}
	ctx.add(lit)
	return nil
}

func (ctx *Context) add(lit z.Lit) {
	ctx.extra = append(ctx.extra, lit)
	ctx.solved = false
	ctx.solver = nil
}

// Check solves base constraints plus the context's additions.
func (ctx *Context) Check() Status {
	m := ctx.model
	g := gini.New()
	m.circuit.ToCnf(g)
	g.Add(m.circuit.T)
	g.Add(0)
	for _, c := range m.constraints {
		g.Add(c.Lit)
		g.Add(0)
	}
	for _, lit := range ctx.extra {
		g.Add(lit)
		g.Add(0)
	}

	start := time.Now()
	status := statusFromGini(m.solve(ctx.purpose, g, m.timeout))
	if m.observer != nil {
		m.observer.ObserveSolve(ctx.purpose, status, time.Since(start))
	}

	ctx.solver = g
	ctx.status = status
	ctx.solved = true
	return status
}

// Solution decodes the last Check. It fails unless that check was Sat.
func (ctx *Context) Solution() (Solution, error) {
	if !ctx.solved || ctx.status != Sat || ctx.solver == nil {
		return Solution{}, fmt.Errorf("constraint: no satisfiable check to decode")
	}
	m := ctx.model
	g := ctx.solver

	sol := Solution{Complete: make(Assignment)}
	for _, n := range m.form.Visible() {
		if g.Value(m.visible[n]) {
			sol.Visible = append(sol.Visible, n)
		}
	}
	for _, n := range m.StaticVariables() {
		enc := m.encodings[n]
		for code, lit := range m.values[n] {
			if g.Value(lit) {
				value, _ := enc.Decode(code)
				sol.Complete[n] = value
				break
			}
		}
	}
	return sol, nil
}
