package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcover/pkg/constraint"
	"github.com/goliatone/go-formcover/pkg/cover"
	"github.com/goliatone/go-formcover/pkg/enumerate"
	"github.com/goliatone/go-formcover/pkg/plan"
	"github.com/goliatone/go-formcover/pkg/testsupport"
)

func buildPlan(t *testing.T, fixture string) *plan.Plan {
	t.Helper()
	model, err := constraint.Build(testsupport.LoadForm(t, fixture), constraint.WithLogger(testsupport.QuietLogger()))
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	res, err := enumerate.New(model, enumerate.WithLogger(testsupport.QuietLogger()), enumerate.WithSeed(1)).Run(context.Background())
	if err != nil {
		t.Fatalf("run engine: %v", err)
	}
	return plan.New(model, res, cover.Select(res.Candidates, model.Reachable()))
}

func readCSV(t *testing.T, data string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	return rows
}

func TestDefaultRegistry(t *testing.T) {
	registry, err := NewDefaultRegistry()
	if err != nil {
		t.Fatalf("default registry: %v", err)
	}
	want := []string{"gating-csv", "json", "questions-csv", "text"}
	if diff := cmp.Diff(want, registry.List()); diff != "" {
		t.Fatalf("renderer names mismatch (-want +got):\n%s", diff)
	}
	if !registry.Has(DefaultRenderer) {
		t.Fatalf("default renderer %q missing", DefaultRenderer)
	}
	if err := registry.Register(JSON{}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if _, err := registry.Get("pdf"); err == nil {
		t.Fatalf("expected unknown renderer error")
	}
}

func TestSafeNameAndFileName(t *testing.T) {
	if got := SafeName("Intake: v2/EU (draft)"); got != "Intake_ v2_EU _draft_" {
		t.Fatalf("safe name mismatch: %q", got)
	}
	p := &plan.Plan{FormName: "Service Intake"}
	if got := FileName(p, QuestionIndexCSV{}); got != "Service Intake_question_index.csv" {
		t.Fatalf("file name mismatch: %q", got)
	}
}

func TestTextRendersCasesAndReference(t *testing.T) {
	p := buildPlan(t, testsupport.ServiceFixture)
	text, err := NewText()
	if err != nil {
		t.Fatalf("compile template: %v", err)
	}
	out := testsupport.CaptureOutput(t, func(w io.Writer) error {
		return text.Render(context.Background(), p, w)
	})

	for _, want := range []string{
		"TEST PLAN - Service Intake",
		"Total test cases: " + strconv.Itoa(len(p.Cases)),
		"Coverage: 8/8 (100.0%)",
		"Q1: ServiceType\n  Options: A, B, C",
		"Test Case 1\n",
		"TEST VARIABLE ASSIGNMENTS (required - follow exactly):",
		"Q1 (ServiceType): ",
		"Q3: ContactEmail (DATA COL)",
		"Q2: Plan (HIDDEN)",
		"Q1: ServiceType (TEST VAR)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "UNREACHABLE QUESTIONS") {
		t.Fatalf("service form has no unreachable questions:\n%s", out)
	}
	if strings.Contains(out, "&quot;") {
		t.Fatalf("text output must not be HTML escaped:\n%s", out)
	}
}

func TestTextListsUnreachableQuestions(t *testing.T) {
	p := buildPlan(t, testsupport.HiddenGateFixture)
	text, err := NewText()
	if err != nil {
		t.Fatalf("compile template: %v", err)
	}
	var buf bytes.Buffer
	if err := text.Render(context.Background(), p, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Unreachable (excluded from coverage): 1",
		"UNREACHABLE QUESTIONS (Cannot be tested)",
		"Q4: Secret",
		`  Visibility condition: Internal == "X"`,
		"Q4: Secret (DATA COL) (UNREACHABLE)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q\n%s", want, out)
		}
	}
}

func TestTextNotesResidualGaps(t *testing.T) {
	p := buildPlan(t, testsupport.ServiceFixture)
	p.CombinatoriallyUnreachable = []int{8}
	p.Indeterminate = []int{9}
	text, err := NewText()
	if err != nil {
		t.Fatalf("compile template: %v", err)
	}
	var buf bytes.Buffer
	if err := text.Render(context.Background(), p, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"NOTES",
		"Questions no answer combination can show: Q8",
		"Questions the solver could not decide within the timeout: Q9",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("text report missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := (JSON{}).Render(context.Background(), p, &buf); err != nil {
		t.Fatalf("render json: %v", err)
	}
	var decoded struct {
		Indeterminate []int `json:"indeterminate"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if diff := cmp.Diff([]int{9}, decoded.Indeterminate); diff != "" {
		t.Fatalf("json indeterminate mismatch (-want +got):\n%s", diff)
	}
}

func TestGatingCSV(t *testing.T) {
	p := buildPlan(t, testsupport.ServiceFixture)
	var buf bytes.Buffer
	if err := (GatingCSV{}).Render(context.Background(), p, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	rows := readCSV(t, buf.String())
	if diff := cmp.Diff(GatingHeader, rows[0]); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}

	var parents, children []string
	for _, row := range rows[1:] {
		parents = append(parents, row[1])
		children = append(children, row[4])
	}
	if diff := cmp.Diff([]string{"Q1", "Q1", "Q1", "Q1", "Q1", "Q2", "Q4"}, parents); diff != "" {
		t.Fatalf("parent order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Q4", "Q5", "Q7", "Q8", "Q9", "Q6", "Q9"}, children); diff != "" {
		t.Fatalf("child order mismatch (-want +got):\n%s", diff)
	}
	want := []string{"Service Intake", "Q2", "Plan", "No", "Q6", "PlanNotes", "==", "B"}
	if diff := cmp.Diff(want, rows[6]); diff != "" {
		t.Fatalf("hidden parent row mismatch (-want +got):\n%s", diff)
	}
	if rows[1][3] != "Yes" {
		t.Fatalf("ServiceType should be flagged as test variable: %v", rows[1])
	}
}

func TestQuestionIndexCSV(t *testing.T) {
	p := buildPlan(t, testsupport.ServiceFixture)
	var buf bytes.Buffer
	if err := WriteQuestionIndexCSV(&buf, p.Form, p.Classification); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows := readCSV(t, buf.String())
	if diff := cmp.Diff(QuestionIndexHeader, rows[0]); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	if len(rows) != 9 {
		t.Fatalf("expected 8 visible questions, got %d rows", len(rows)-1)
	}
	byNumber := map[string][]string{}
	for _, row := range rows[1:] {
		byNumber[row[1]] = row
	}
	if _, ok := byNumber["Q2"]; ok {
		t.Fatalf("hidden question must be skipped")
	}
	if diff := cmp.Diff([]string{"Service Intake", "Q1", "ServiceType", "select", "TEST_VAR", "0", "", "5", "Q4, Q5, Q7, Q8, Q9"}, byNumber["Q1"]); diff != "" {
		t.Fatalf("Q1 row mismatch (-want +got):\n%s", diff)
	}
	if got := byNumber["Q9"]; got[4] != "DATA_COL" || got[5] != "2" || got[6] != "Q1, Q4" {
		t.Fatalf("Q9 row mismatch: %v", got)
	}
}

func TestJSONRoundTripsSummary(t *testing.T) {
	p := buildPlan(t, testsupport.FlatFixture)
	var buf bytes.Buffer
	if err := (JSON{}).Render(context.Background(), p, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	var decoded struct {
		RunID string     `json:"runId"`
		Stats plan.Stats `json:"stats"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.RunID != p.RunID || decoded.Stats != p.Stats {
		t.Fatalf("json summary mismatch: %+v vs %+v", decoded.Stats, p.Stats)
	}
}

func TestRenderersRejectCancelledContext(t *testing.T) {
	p := buildPlan(t, testsupport.FlatFixture)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, r := range []Renderer{GatingCSV{}, QuestionIndexCSV{}, JSON{}} {
		if err := r.Render(ctx, p, &bytes.Buffer{}); err == nil {
			t.Fatalf("%s: expected context error", r.Name())
		}
	}
}
