package report

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formcover/pkg/plan"
	"github.com/goliatone/go-formcover/pkg/questionnaire"
)

//go:embed templates/*.tpl
var templateFiles embed.FS

const textTemplate = "test_plan.txt.tpl"

// Text renders the tester-facing plain text test plan.
type Text struct {
	tmpl *pongo2.Template
}

// TemplatesFS exposes the built-in report templates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		return templateFiles
	}
	return sub
}

// NewText compiles the embedded text template.
func NewText() (*Text, error) {
	return NewTextFromFS(TemplatesFS())
}

// NewTextFromFS compiles test_plan.txt.tpl from templates, letting callers
// ship their own layout with the same context keys.
func NewTextFromFS(templates fs.FS) (*Text, error) {
	if templates == nil {
		return nil, fmt.Errorf("report: templates fs is nil")
	}
	set := pongo2.NewSet("formcover", pongo2.NewFSLoader(templates))
	set.Options.TrimBlocks = true
	set.Options.LStripBlocks = true
	tmpl, err := set.FromFile(textTemplate)
	if err != nil {
		return nil, fmt.Errorf("report: compile %s: %w", textTemplate, err)
	}
	return &Text{tmpl: tmpl}, nil
}

func (*Text) Name() string        { return "text" }
func (*Text) ContentType() string { return "text/plain; charset=utf-8" }
func (*Text) FileSuffix() string  { return "_test_plan.txt" }

// Render executes the template against p.
func (t *Text) Render(ctx context.Context, p *plan.Plan, w io.Writer) error {
	if p == nil {
		return fmt.Errorf("report: plan is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.tmpl.ExecuteWriter(textContext(p), w); err != nil {
		return fmt.Errorf("report: render text: %w", err)
	}
	return nil
}

type textVariable struct {
	Number  int
	Label   string
	Options string
}

type textCase struct {
	Sequence     int
	Assignments  []string
	VisibleCount int
	Visible      string
	Data         string
}

type textUnreachable struct {
	Number    int
	Label     string
	Condition string
}

func textContext(p *plan.Plan) pongo2.Context {
	ctx := pongo2.Context{
		"rule":   strings.Repeat("=", 100),
		"dash":   strings.Repeat("-", 100),
		"name":   p.FormName,
		"run_id": p.RunID,
		"seed":   strconv.FormatUint(p.Seed, 10),
	}

	summary := []string{
		fmt.Sprintf("Test variables: %d", len(p.Variables)),
		fmt.Sprintf("Total test cases: %d", p.Stats.Cases),
		fmt.Sprintf("Reachable questions: %d", p.Stats.Reachable),
	}
	if len(p.Unreachable) > 0 {
		summary = append(summary, fmt.Sprintf("Unreachable (excluded from coverage): %d", len(p.Unreachable)))
	}
	summary = append(summary,
		fmt.Sprintf("Min questions per case: %d", p.Stats.MinQuestions),
		fmt.Sprintf("Max questions per case: %d", p.Stats.MaxQuestions),
		fmt.Sprintf("Avg questions per case: %.1f", p.Stats.AvgQuestions),
		fmt.Sprintf("Coverage: %d/%d (%.1f%%)", p.Stats.Covered, p.Stats.Reachable, p.Stats.Coverage),
	)
	ctx["summary"] = summary

	var data []string
	for _, n := range p.Classification.DataCollection {
		if p.IsUnreachable(n) {
			continue
		}
		q, _ := p.Question(n)
		data = append(data, fmt.Sprintf("Q%d: %s", n, q.Label))
	}
	ctx["data_collection"] = data

	variables := make([]textVariable, 0, len(p.Variables))
	for _, v := range p.Variables {
		options := strings.Join(v.Values, ", ")
		if v.Dynamic {
			options = "(free text, answered or left blank)"
		}
		variables = append(variables, textVariable{Number: v.Question, Label: v.Label, Options: options})
	}
	ctx["variables"] = variables

	cases := make([]textCase, 0, len(p.Cases))
	for _, tc := range p.Cases {
		view := textCase{Sequence: tc.Sequence, VisibleCount: len(tc.Visible), Visible: questionList(tc.Visible)}
		for _, a := range p.VisibleTestVariables(tc) {
			line := fmt.Sprintf("Q%d (%s): %s", a.Question, a.Label, a.Value)
			if a.Display != a.Value {
				line += fmt.Sprintf(" [%s]", a.Display)
			}
			view.Assignments = append(view.Assignments, line)
		}
		var data []int
		for _, q := range p.VisibleDataCollection(tc) {
			data = append(data, q.Number)
		}
		view.Data = questionList(data)
		cases = append(cases, view)
	}
	ctx["cases"] = cases

	reference := make([]string, 0, len(p.Form.Questions))
	for _, q := range p.Form.Questions {
		line := fmt.Sprintf("Q%d: %s", q.Number, q.Label)
		switch p.Classification.Class(q.Number) {
		case questionnaire.ClassTestVariable:
			line += " (TEST VAR)"
		case questionnaire.ClassDataCollection:
			line += " (DATA COL)"
		case questionnaire.ClassHidden:
			line += " (HIDDEN)"
		}
		if p.IsUnreachable(q.Number) {
			line += " (UNREACHABLE)"
		}
		reference = append(reference, line)
	}
	ctx["reference"] = reference

	unreachable := make([]textUnreachable, 0, len(p.Unreachable))
	for _, u := range p.Unreachable {
		unreachable = append(unreachable, textUnreachable{Number: u.Question, Label: u.Label, Condition: u.Condition.String()})
	}
	ctx["unreachable"] = unreachable

	var notes []string
	if len(p.Uncovered) > 0 {
		notes = append(notes, "Reachable questions no test case shows: "+questionList(p.Uncovered))
	}
	if len(p.CombinatoriallyUnreachable) > 0 {
		notes = append(notes, "Questions no answer combination can show: "+questionList(p.CombinatoriallyUnreachable))
	}
	if len(p.Indeterminate) > 0 {
		notes = append(notes, "Questions the solver could not decide within the timeout: "+questionList(p.Indeterminate))
	}
	for _, f := range p.Fallbacks {
		notes = append(notes, fmt.Sprintf("Q%d is treated as always visible: %s", f.Question, f.Reason))
	}
	if p.Sampled {
		notes = append(notes, fmt.Sprintf("Combinations were sampled; rerun with seed %d to reproduce.", p.Seed))
	}
	ctx["notes"] = notes
	return ctx
}

func questionList(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = "Q" + strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
