package enumerate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-air/gini"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcover/pkg/constraint"
	"github.com/goliatone/go-formcover/pkg/questionnaire"
	"github.com/goliatone/go-formcover/pkg/testsupport"
)

func buildModel(t *testing.T, fixture string) *constraint.Model {
	t.Helper()
	model, err := constraint.Build(testsupport.LoadForm(t, fixture), constraint.WithLogger(testsupport.QuietLogger()))
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	return model
}

func visibleUnion(candidates []Candidate) map[int]bool {
	out := map[int]bool{}
	for _, c := range candidates {
		for _, n := range c.Visible {
			out[n] = true
		}
	}
	return out
}

func TestRunWithGatekeeperCoversReachableQuestions(t *testing.T) {
	model := buildModel(t, testsupport.ServiceFixture)
	res, err := New(model, WithLogger(testsupport.QuietLogger())).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Gatekeepers) != 1 {
		t.Fatalf("expected one gatekeeper, got %#v", res.Gatekeepers)
	}
	gk := res.Gatekeepers[0]
	if gk.Label != "ServiceType" {
		t.Fatalf("gatekeeper label mismatch: %q", gk.Label)
	}
	if diff := cmp.Diff([]int{4, 5, 7, 8, 9}, gk.Controlled); diff != "" {
		t.Fatalf("controlled mismatch (-want +got):\n%s", diff)
	}
	if res.Tested != 3 || res.Sampled {
		t.Fatalf("expected the 3 ServiceType values to be tested without sampling, got tested=%d sampled=%v", res.Tested, res.Sampled)
	}

	union := visibleUnion(res.Candidates)
	for _, n := range model.Reachable() {
		if !union[n] {
			t.Fatalf("reachable question %d not covered by any candidate", n)
		}
	}
	if len(res.CombinatoriallyUnreachable) != 0 || len(res.Indeterminate) != 0 {
		t.Fatalf("unexpected residual: %v %v", res.CombinatoriallyUnreachable, res.Indeterminate)
	}

	for _, c := range res.Candidates {
		if c.Phase == PhaseGatekeeper && len(c.Assignment) != 1 {
			t.Fatalf("phase 1 candidate should only assign the gatekeeper, got %v", c.Assignment)
		}
	}
}

func TestRunNeverShowsUnreachableQuestions(t *testing.T) {
	model := buildModel(t, testsupport.HiddenGateFixture)
	if diff := cmp.Diff([]int{4}, model.Unreachable()); diff != "" {
		t.Fatalf("unreachable mismatch (-want +got):\n%s", diff)
	}

	res, err := New(model, WithLogger(testsupport.QuietLogger())).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if visibleUnion(res.Candidates)[4] {
		t.Fatalf("unreachable question appeared in a candidate")
	}
	if len(res.Uncovered) != 0 {
		t.Fatalf("unreachable questions must not count as uncovered: %v", res.Uncovered)
	}
}

const conflictForm = `
name: Conflicts
pages:
  - pageItems:
      - label: Kind
        type: radio
        options: [{dataValue: k1}, {dataValue: k2}]
      - label: Both
        type: text
        visibilityRule: 'Kind == "k1" && Kind == "k2"'
      - label: One
        type: text
        visibilityRule: 'Kind == "k1"'
`

func buildConflictModel(t *testing.T, options ...constraint.Option) *constraint.Model {
	t.Helper()
	form, err := questionnaire.Decode([]byte(conflictForm), questionnaire.WithLogger(testsupport.QuietLogger()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	options = append([]constraint.Option{constraint.WithLogger(testsupport.QuietLogger())}, options...)
	model, err := constraint.Build(form, options...)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return model
}

func TestRunReportsCombinatoriallyUnreachableQuestions(t *testing.T) {
	model := buildConflictModel(t)
	if len(model.Unreachable()) != 0 {
		t.Fatalf("conflict is not structural, got %v", model.Unreachable())
	}

	res, err := New(model, WithLogger(testsupport.QuietLogger())).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff([]int{2}, res.Uncovered); diff != "" {
		t.Fatalf("phase 2 gap mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2}, res.CombinatoriallyUnreachable); diff != "" {
		t.Fatalf("combinatorially unreachable mismatch (-want +got):\n%s", diff)
	}
	if res.Synthesized != 0 || len(res.Indeterminate) != 0 {
		t.Fatalf("nothing should be synthesized or undecided, got %d %v", res.Synthesized, res.Indeterminate)
	}
}

func TestRunReportsUndecidedSynthesisSeparately(t *testing.T) {
	model := buildConflictModel(t, constraint.WithSolveFunc(func(purpose string, g *gini.Gini, _ time.Duration) int {
		if purpose == "synthesize" {
			return 0
		}
		return g.Solve()
	}))

	res, err := New(model, WithLogger(testsupport.QuietLogger())).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff([]int{2}, res.Indeterminate); diff != "" {
		t.Fatalf("indeterminate mismatch (-want +got):\n%s", diff)
	}
	if len(res.CombinatoriallyUnreachable) != 0 {
		t.Fatalf("an undecided check must not be reported as unreachable: %v", res.CombinatoriallyUnreachable)
	}
	if len(res.Candidates) == 0 {
		t.Fatalf("phase 1 candidates should survive an undecided synthesis")
	}
}

func TestRunWithoutGatekeepersUsesCrossProduct(t *testing.T) {
	model := buildModel(t, testsupport.FlatFixture)
	res, err := New(model, WithLogger(testsupport.QuietLogger())).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Gatekeepers) != 0 {
		t.Fatalf("expected no gatekeepers, got %#v", res.Gatekeepers)
	}
	if res.Tested != 12 || len(res.Candidates) != 12 || res.Sampled {
		t.Fatalf("expected all 12 combinations valid, got tested=%d candidates=%d sampled=%v",
			res.Tested, len(res.Candidates), res.Sampled)
	}
}

func TestRunSamplingIsReproducibleWithSeed(t *testing.T) {
	model := buildModel(t, testsupport.FlatFixture)
	run := func() Result {
		res, err := New(model,
			WithLogger(testsupport.QuietLogger()),
			WithMaxSamples(5),
			WithSeed(42),
		).Run(context.Background())
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return res
	}

	first, second := run(), run()
	if !first.Sampled || first.Tested != 5 || first.Seed != 42 {
		t.Fatalf("expected 5 seeded samples, got sampled=%v tested=%d seed=%d", first.Sampled, first.Tested, first.Seed)
	}
	if diff := cmp.Diff(first.Candidates, second.Candidates); diff != "" {
		t.Fatalf("same seed produced different candidates (-first +second):\n%s", diff)
	}
}

func TestRunReportsDrawnSeed(t *testing.T) {
	model := buildModel(t, testsupport.FlatFixture)
	res, err := New(model, WithLogger(testsupport.QuietLogger())).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Seed == 0 {
		t.Fatalf("expected a drawn seed to be reported")
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	model := buildModel(t, testsupport.FlatFixture)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(model, WithLogger(testsupport.QuietLogger())).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSampleProductDrawsDistinctCombinations(t *testing.T) {
	domains := []domain{
		{question: 1, values: []string{"a", "b", "c"}},
		{question: 2, values: []string{"x", "y", "z", "w"}},
		{question: 3, values: []string{"0", "1"}},
	}
	got := sampleProduct(domains, 10, newRand(7))
	if len(got) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, a := range got {
		key := assignmentKey(a)
		if seen[key] {
			t.Fatalf("duplicate sample %v", a)
		}
		seen[key] = true
		if len(a) != 3 {
			t.Fatalf("sample should assign every variable: %v", a)
		}
	}

	all := sampleProduct(domains, 100, newRand(7))
	if len(all) != 24 {
		t.Fatalf("cap above product size should return the full product, got %d", len(all))
	}
	if diff := cmp.Diff(constraint.Assignment{1: "a", 2: "x", 3: "0"}, all[0]); diff != "" {
		t.Fatalf("product order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(constraint.Assignment{1: "a", 2: "x", 3: "1"}, all[1]); diff != "" {
		t.Fatalf("product order mismatch (-want +got):\n%s", diff)
	}
}

func TestRankGatekeepersOrdersBySizeThenNumber(t *testing.T) {
	model := buildModel(t, testsupport.ServiceFixture)
	eligible := map[int]bool{1: true, 4: true}
	got := rankGatekeepers(model.Form(), eligible, 3, 1)
	var order []int
	for _, gk := range got {
		order = append(order, gk.Question)
	}
	if diff := cmp.Diff([]int{1, 4}, order); diff != "" {
		t.Fatalf("gatekeeper order mismatch (-want +got):\n%s", diff)
	}
	if limited := rankGatekeepers(model.Form(), eligible, 1, 1); len(limited) != 1 || limited[0].Question != 1 {
		t.Fatalf("limit should keep the largest controlled set, got %#v", limited)
	}
}
