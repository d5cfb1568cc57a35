package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formcover/pkg/plan"
	"github.com/goliatone/go-formcover/pkg/questionnaire"
)

// GatingHeader is the column set of the gating relationship CSV.
var GatingHeader = []string{
	"Questionnaire_Name",
	"Parent_Question_Number",
	"Parent_Question_Label",
	"Parent_Is_Test_Variable",
	"Child_Question_Number",
	"Child_Question_Label",
	"Operator",
	"Expected_Value",
}

// QuestionIndexHeader is the column set of the question index CSV.
var QuestionIndexHeader = []string{
	"Questionnaire_Name",
	"Question_Number",
	"Question_Label",
	"Type",
	"Classification",
	"Gated_By_Count",
	"Gated_By_Questions",
	"Gates_Count",
	"Gates_Questions",
}

var operatorDisplay = map[questionnaire.Operator]string{
	questionnaire.OperatorEquals:      "==",
	questionnaire.OperatorNotEquals:   "!=",
	questionnaire.OperatorContains:    "contains",
	questionnaire.OperatorNotContains: "does not contain",
	questionnaire.OperatorIncludes:    "includes",
}

// WriteGatingCSV writes one row per parent/child gating relationship,
// parents in question order. Parents that are not questions of the form are
// listed last with number "Q?".
func WriteGatingCSV(w io.Writer, form *questionnaire.Form, classification questionnaire.Classification) error {
	deps := questionnaire.ReverseDependencies(form)
	parents := make([]string, 0, len(deps))
	for label := range deps {
		parents = append(parents, label)
	}
	order := func(label string) int {
		if n := form.NumberOf(label); n > 0 {
			return n
		}
		return int(^uint(0) >> 1)
	}
	sort.Slice(parents, func(i, j int) bool {
		oi, oj := order(parents[i]), order(parents[j])
		if oi != oj {
			return oi < oj
		}
		return parents[i] < parents[j]
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(GatingHeader); err != nil {
		return err
	}
	for _, parent := range parents {
		number := form.NumberOf(parent)
		isTestVariable := "No"
		if number > 0 && classification.IsTestVariable(number) {
			isTestVariable = "Yes"
		}
		children := deps[parent]
		sort.SliceStable(children, func(i, j int) bool { return children[i].ChildNumber < children[j].ChildNumber })
		for _, child := range children {
			op, ok := operatorDisplay[child.Operator]
			if !ok {
				op = string(child.Operator)
			}
			expected := ""
			if child.Value != nil {
				expected = *child.Value
			}
			if err := cw.Write([]string{
				form.Name,
				questionRef(number),
				parent,
				isTestVariable,
				questionRef(child.ChildNumber),
				child.ChildLabel,
				op,
				expected,
			}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteQuestionIndexCSV writes one row per visible question with the
// questions that gate it and the questions it gates.
func WriteQuestionIndexCSV(w io.Writer, form *questionnaire.Form, classification questionnaire.Classification) error {
	deps := questionnaire.ReverseDependencies(form)

	cw := csv.NewWriter(w)
	if err := cw.Write(QuestionIndexHeader); err != nil {
		return err
	}
	for _, q := range form.Questions {
		if q.Hidden {
			continue
		}
		class := "HIDDEN"
		switch classification.Class(q.Number) {
		case questionnaire.ClassTestVariable:
			class = "TEST_VAR"
		case questionnaire.ClassDataCollection:
			class = "DATA_COL"
		}

		var gatedBy []int
		if q.Visibility != nil {
			for _, label := range q.Visibility.Labels() {
				gatedBy = append(gatedBy, form.NumberOf(label))
			}
		}
		var gates []int
		for _, child := range deps[q.Label] {
			gates = append(gates, child.ChildNumber)
		}
		gatedBy, gates = uniqueSorted(gatedBy), uniqueSorted(gates)

		if err := cw.Write([]string{
			form.Name,
			questionRef(q.Number),
			q.Label,
			q.Type,
			class,
			strconv.Itoa(len(gatedBy)),
			refList(gatedBy),
			strconv.Itoa(len(gates)),
			refList(gates),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// GatingCSV renders the gating relationships of a plan's form.
type GatingCSV struct{}

func (GatingCSV) Name() string        { return "gating-csv" }
func (GatingCSV) ContentType() string { return "text/csv; charset=utf-8" }
func (GatingCSV) FileSuffix() string  { return "_gating_relationships.csv" }

func (GatingCSV) Render(ctx context.Context, p *plan.Plan, w io.Writer) error {
	if p == nil || p.Form == nil {
		return fmt.Errorf("report: plan form is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteGatingCSV(w, p.Form, p.Classification)
}

// QuestionIndexCSV renders the per-question index of a plan's form.
type QuestionIndexCSV struct{}

func (QuestionIndexCSV) Name() string        { return "questions-csv" }
func (QuestionIndexCSV) ContentType() string { return "text/csv; charset=utf-8" }
func (QuestionIndexCSV) FileSuffix() string  { return "_question_index.csv" }

func (QuestionIndexCSV) Render(ctx context.Context, p *plan.Plan, w io.Writer) error {
	if p == nil || p.Form == nil {
		return fmt.Errorf("report: plan form is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteQuestionIndexCSV(w, p.Form, p.Classification)
}

// questionRef formats a question number; 0 marks an unknown question.
func questionRef(number int) string {
	if number <= 0 {
		return "Q?"
	}
	return "Q" + strconv.Itoa(number)
}

func refList(numbers []int) string {
	refs := make([]string, len(numbers))
	for i, n := range numbers {
		refs[i] = questionRef(n)
	}
	return strings.Join(refs, ", ")
}

func uniqueSorted(numbers []int) []int {
	if len(numbers) == 0 {
		return nil
	}
	sort.Ints(numbers)
	out := numbers[:1]
	for _, n := range numbers[1:] {
		if n != out[len(out)-1] {
			out = append(out, n)
		}
	}
	return out
}
