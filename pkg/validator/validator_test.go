package validator

import (
	"testing"
	"time"

	"github.com/go-air/gini"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcover/pkg/constraint"
	"github.com/goliatone/go-formcover/pkg/testsupport"
)

func serviceModel(t *testing.T) *constraint.Model {
	t.Helper()
	form := testsupport.LoadForm(t, testsupport.ServiceFixture)
	model, err := constraint.Build(form, constraint.WithLogger(testsupport.QuietLogger()))
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	return model
}

func TestValidateDerivesVisibility(t *testing.T) {
	model := serviceModel(t)

	out := Validate(constraint.Assignment{1: "B", 4: "EU"}, model)
	if !out.OK {
		t.Fatalf("expected success, got %s (%s)", out.Reason, out.Kind)
	}
	if diff := cmp.Diff([]int{1, 3, 4, 5, 6, 9}, out.Visible); diff != "" {
		t.Fatalf("visible mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(constraint.Assignment{1: "B", 4: "EU"}, out.Complete); diff != "" {
		t.Fatalf("complete assignment mismatch (-want +got):\n%s", diff)
	}

	hidden := Validate(constraint.Assignment{1: "A"}, model)
	if !hidden.OK {
		t.Fatalf("expected success, got %s", hidden.Reason)
	}
	if hidden.Complete[4] != constraint.Unset {
		t.Fatalf("region should be unset when ServiceType=A, got %q", hidden.Complete[4])
	}
}

func TestValidateIsIdempotentOnCompleteAssignment(t *testing.T) {
	model := serviceModel(t)
	for _, assignment := range []constraint.Assignment{
		{},
		{1: "A"},
		{1: "B"},
		{1: "C", 4: constraint.Unset},
	} {
		first := Validate(assignment, model)
		if !first.OK {
			t.Fatalf("assignment %v rejected: %s", assignment, first.Reason)
		}
		second := Validate(first.Complete, model)
		if !second.OK {
			t.Fatalf("complete assignment %v rejected: %s", first.Complete, second.Reason)
		}
		if diff := cmp.Diff(first.Visible, second.Visible); diff != "" {
			t.Fatalf("visible set changed on revalidation (-first +second):\n%s", diff)
		}
	}
}

func TestValidateLinkageInvariant(t *testing.T) {
	model := serviceModel(t)
	for _, value := range []string{"A", "B", "C"} {
		out := Validate(constraint.Assignment{1: value}, model)
		if !out.OK {
			t.Fatalf("ServiceType=%s rejected: %s", value, out.Reason)
		}
		visible := map[int]bool{}
		for _, n := range out.Visible {
			visible[n] = true
		}
		for n, v := range out.Complete {
			if (v != constraint.Unset) != visible[n] {
				t.Fatalf("ServiceType=%s: variable %d value %q but visible=%v", value, n, v, visible[n])
			}
		}
	}
}

func TestValidateRejections(t *testing.T) {
	model := serviceModel(t)

	cases := []struct {
		name       string
		assignment constraint.Assignment
		kind       ReasonKind
	}{
		{name: "unknown variable", assignment: constraint.Assignment{3: "x"}, kind: ReasonUnknownVariable},
		{name: "hidden question", assignment: constraint.Assignment{2: "B"}, kind: ReasonUnknownVariable},
		{name: "invalid value", assignment: constraint.Assignment{1: "Z"}, kind: ReasonInvalidValue},
		{name: "invalid value beside valid one", assignment: constraint.Assignment{1: "B", 4: "APAC"}, kind: ReasonInvalidValue},
		{name: "contradiction", assignment: constraint.Assignment{1: "A", 4: "EU"}, kind: ReasonContradiction},
		{name: "visible but unset", assignment: constraint.Assignment{1: "B", 4: constraint.Unset}, kind: ReasonContradiction},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Validate(tc.assignment, model)
			if out.OK {
				t.Fatalf("expected failure for %v", tc.assignment)
			}
			if out.Kind != tc.kind {
				t.Fatalf("reason kind mismatch: got %q (%s), want %q", out.Kind, out.Reason, tc.kind)
			}
			if out.Reason == "" {
				t.Fatalf("expected a reason")
			}
		})
	}
}

func TestValidateNilModel(t *testing.T) {
	if out := Validate(constraint.Assignment{1: "A"}, nil); out.OK {
		t.Fatalf("expected failure without a model")
	}
}

func TestValidateIndeterminateIsNeverOK(t *testing.T) {
	form := testsupport.LoadForm(t, testsupport.ServiceFixture)
	model, err := constraint.Build(form,
		constraint.WithLogger(testsupport.QuietLogger()),
		constraint.WithSolveFunc(func(string, *gini.Gini, time.Duration) int { return 0 }),
	)
	if err != nil {
		t.Fatalf("build model: %v", err)
	}

	out := Validate(constraint.Assignment{1: "B"}, model)
	if out.OK {
		t.Fatalf("indeterminate check must not validate")
	}
	if out.Kind != ReasonIndeterminate || out.Status != constraint.Indeterminate {
		t.Fatalf("expected indeterminate outcome, got kind=%q status=%v", out.Kind, out.Status)
	}
	if len(out.Visible) != 0 || out.Complete != nil {
		t.Fatalf("indeterminate outcome must carry no solution: %+v", out)
	}
}
