package main

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formcover/pkg/questionnaire"
)

func TestGeneratedFormDecodes(t *testing.T) {
	payload, err := yaml.Marshal(generate(3, 2, 2, 1, 7))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	form, err := questionnaire.Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(form.Questions) != 9 {
		t.Fatalf("expected 9 questions, got %d", len(form.Questions))
	}
	class := questionnaire.Classify(form)
	if len(class.TestVariables) != 3 || len(class.DataCollection) != 6 {
		t.Fatalf("unexpected classification: %+v", class)
	}
	if q, _ := form.Lookup("Gate3Child1"); q.Visibility == nil || len(q.Visibility.Labels()) != 2 {
		t.Fatalf("nested child should reference two gates, got %v", q.Visibility)
	}
}
