package plan

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formcover/pkg/constraint"
	"github.com/goliatone/go-formcover/pkg/cover"
	"github.com/goliatone/go-formcover/pkg/enumerate"
	"github.com/goliatone/go-formcover/pkg/questionnaire"
)

// Variable is one row of the value-encoding table.
type Variable struct {
	Question int      `json:"question"`
	Label    string   `json:"label"`
	Values   []string `json:"values"`
	Dynamic  bool     `json:"dynamic"`
}

// Unreachable describes a question that can never be shown, with its
// condition kept for display.
type Unreachable struct {
	Question  int                       `json:"question"`
	Label     string                    `json:"label"`
	Condition *questionnaire.Expression `json:"condition,omitempty"`
}

// Stats summarises a plan.
type Stats struct {
	Cases        int     `json:"cases"`
	Reachable    int     `json:"reachable"`
	Covered      int     `json:"covered"`
	Coverage     float64 `json:"coverage"`
	MinQuestions int     `json:"minQuestions"`
	MaxQuestions int     `json:"maxQuestions"`
	AvgQuestions float64 `json:"avgQuestions"`
	Candidates   int     `json:"candidates"`
	Tested       int     `json:"tested"`
	Synthesized  int     `json:"synthesized"`
}

// Plan is one generated test suite.
type Plan struct {
	RunID          string                       `json:"runId"`
	GeneratedAt    time.Time                    `json:"generatedAt"`
	FormName       string                       `json:"formName"`
	Form           *questionnaire.Form          `json:"form"`
	Classification questionnaire.Classification `json:"classification"`
	Variables      []Variable                   `json:"variables"`
	Cases          []cover.TestCase             `json:"cases"`
	Reachable      []int                        `json:"reachable"`
	Unreachable    []Unreachable                `json:"unreachable"`
	// Uncovered lists reachable questions no selected case shows.
	Uncovered []int `json:"uncovered"`
	// CombinatoriallyUnreachable lists questions the solver could not show.
	CombinatoriallyUnreachable []int `json:"combinatoriallyUnreachable"`
	// Indeterminate lists questions whose synthesis check did not finish
	// within the solver timeout.
	Indeterminate []int                  `json:"indeterminate"`
	Fallbacks     []constraint.Fallback  `json:"fallbacks"`
	Gatekeepers   []enumerate.Gatekeeper `json:"gatekeepers"`
	Sampled       bool                   `json:"sampled"`
	Seed          uint64                 `json:"seed"`
	Stats         Stats                  `json:"stats"`
}

// New assembles a plan from the model, the engine result and the selection.
func New(model *constraint.Model, res enumerate.Result, sel cover.Selection) *Plan {
	form := model.Form()
	p := &Plan{
		RunID:                      uuid.NewString(),
		GeneratedAt:                time.Now().UTC(),
		FormName:                   form.Name,
		Form:                       form,
		Classification:             model.Classification(),
		Cases:                      sel.Cases,
		Reachable:                  model.Reachable(),
		Uncovered:                  sel.Uncovered,
		CombinatoriallyUnreachable: res.CombinatoriallyUnreachable,
		Indeterminate:              res.Indeterminate,
		Fallbacks:                  model.Fallbacks(),
		Gatekeepers:                res.Gatekeepers,
		Sampled:                    res.Sampled,
		Seed:                       res.Seed,
	}

	encodings := model.Encodings()
	for _, n := range model.TestVariables() {
		q, _ := form.Question(n)
		enc := encodings[n]
		p.Variables = append(p.Variables, Variable{
			Question: n,
			Label:    q.Label,
			Values:   enc.Values(),
			Dynamic:  enc.Dynamic(),
		})
	}
	for _, n := range model.Unreachable() {
		q, _ := form.Question(n)
		p.Unreachable = append(p.Unreachable, Unreachable{Question: n, Label: q.Label, Condition: q.Visibility})
	}

	p.Stats = summarise(sel, len(res.Candidates))
	p.Stats.Tested = res.Tested
	p.Stats.Synthesized = res.Synthesized
	return p
}

func summarise(sel cover.Selection, candidates int) Stats {
	s := Stats{
		Cases:      len(sel.Cases),
		Reachable:  len(sel.Target),
		Covered:    len(sel.Target) - len(sel.Uncovered),
		Coverage:   sel.Coverage(),
		Candidates: candidates,
	}
	if len(sel.Cases) == 0 {
		return s
	}
	total := 0
	s.MinQuestions = sel.Cases[0].QuestionCount
	for _, tc := range sel.Cases {
		total += tc.QuestionCount
		s.MinQuestions = min(s.MinQuestions, tc.QuestionCount)
		s.MaxQuestions = max(s.MaxQuestions, tc.QuestionCount)
	}
	s.AvgQuestions = float64(total) / float64(len(sel.Cases))
	return s
}

// Question returns a question of the plan's form.
func (p *Plan) Question(number int) (questionnaire.Question, bool) {
	return p.Form.Question(number)
}

// IsUnreachable reports whether number is structurally unreachable.
func (p *Plan) IsUnreachable(number int) bool {
	for _, u := range p.Unreachable {
		if u.Question == number {
			return true
		}
	}
	return false
}

// VisibleTestVariables returns the case's test variables that are shown,
// with their values, in ascending question order.
func (p *Plan) VisibleTestVariables(tc cover.TestCase) []Answer {
	visible := make(map[int]struct{}, len(tc.Visible))
	for _, n := range tc.Visible {
		visible[n] = struct{}{}
	}
	var out []Answer
	for _, n := range p.Classification.TestVariables {
		if _, ok := visible[n]; !ok {
			continue
		}
		value, ok := tc.Complete[n]
		if !ok {
			value = tc.Assignment[n]
		}
		if value == "" || value == constraint.Unset {
			continue
		}
		q, _ := p.Form.Question(n)
		out = append(out, Answer{Question: n, Label: q.Label, Value: value, Display: displayOf(q, value)})
	}
	return out
}

// VisibleDataCollection returns the data collection questions a case shows.
func (p *Plan) VisibleDataCollection(tc cover.TestCase) []questionnaire.Question {
	data := make(map[int]struct{}, len(p.Classification.DataCollection))
	for _, n := range p.Classification.DataCollection {
		data[n] = struct{}{}
	}
	var out []questionnaire.Question
	for _, n := range tc.Visible {
		if _, ok := data[n]; ok {
			q, _ := p.Form.Question(n)
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Answer is one test variable value inside a case.
type Answer struct {
	Question int
	Label    string
	Value    string
	Display  string
}

func displayOf(q questionnaire.Question, value string) string {
	for _, opt := range q.Options {
		if opt.Value == value && opt.Display != "" {
			return opt.Display
		}
	}
	return value
}
