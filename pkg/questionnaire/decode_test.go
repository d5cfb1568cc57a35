package questionnaire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const serviceFormJSON = `{
  "name": "Service Intake",
  "pages": [
    {"pageItems": [
      {"label": "ServiceType", "type": "select", "required": true,
       "options": [{"dataValue": "A", "displayValue": "Alpha"}, {"dataValue": "B", "displayValue": "Beta"}, {"dataValue": "C", "displayValue": "Gamma"}]},
      {"label": "Plan", "type": "hidden", "hidden": true, "defaultAnswer": "B"}
    ]},
    {"pageItems": [
      {"label": "Region", "type": "text",
       "visibilityCondition": {"expression": {"operator": "EQUALS", "left": {"label": "ServiceType"}, "right": {"value": "B"}}}},
      {"label": "Tier", "type": "number",
       "visibilityCondition": {"expression": {"operator": "AND",
          "left": {"operator": "EQUALS", "left": {"label": "ServiceType"}, "right": {"value": "B"}},
          "right": {"operator": "NOT_EQUALS", "left": {"label": "Plan"}, "right": {"values": [3]}}}}},
      {"options": [{"dataValue": 1}, {"dataValue": 1}, {"dataValue": true}]}
    ]}
  ]
}`

const serviceFormYAML = `
name: Service Intake
pages:
  - pageItems:
      - label: ServiceType
        type: select
        required: true
        options:
          - {dataValue: A, displayValue: Alpha}
          - {dataValue: B, displayValue: Beta}
          - {dataValue: C, displayValue: Gamma}
      - label: Plan
        type: hidden
        hidden: true
        defaultAnswer: B
  - pageItems:
      - label: Region
        type: text
        visibilityRule: 'ServiceType == "B"'
      - label: Tier
        type: number
        visibilityRule: 'ServiceType == "B" && Plan != 3'
      - options:
          - dataValue: 1
          - dataValue: 1
          - dataValue: true
`

func TestDecodeNumbersQuestionsAcrossPages(t *testing.T) {
	form, err := Decode([]byte(serviceFormJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if form.Name != "Service Intake" {
		t.Fatalf("name mismatch: got %q", form.Name)
	}

	var got []string
	for _, q := range form.Questions {
		got = append(got, q.Label)
		if q.Number != len(got) {
			t.Fatalf("question %q numbered %d, want %d", q.Label, q.Number, len(got))
		}
	}
	want := []string{"ServiceType", "Plan", "Region", "Tier", "Unknown"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}

	last := form.Questions[4]
	if last.Type != "Unknown" {
		t.Fatalf("expected default type Unknown, got %q", last.Type)
	}
	if diff := cmp.Diff([]string{"1", "true"}, last.OptionValues()); diff != "" {
		t.Fatalf("duplicate options not collapsed (-want +got):\n%s", diff)
	}

	plan := form.Questions[1]
	if plan.DefaultAnswer == nil || *plan.DefaultAnswer != "B" {
		t.Fatalf("expected default answer B, got %v", plan.DefaultAnswer)
	}

	tier := form.Questions[3]
	if got := tier.Visibility.String(); got != `ServiceType == "B" AND Plan != "3"` {
		t.Fatalf("tier visibility mismatch: %s", got)
	}
}

func TestDecodeJSONAndYAMLAgree(t *testing.T) {
	fromJSON, err := Decode([]byte(serviceFormJSON))
	if err != nil {
		t.Fatalf("decode json: %v", err)
	}
	fromYAML, err := Decode([]byte(serviceFormYAML))
	if err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if diff := cmp.Diff(fromJSON, fromYAML); diff != "" {
		t.Fatalf("json/yaml forms differ (-json +yaml):\n%s", diff)
	}
}

func TestDecodeConditionWithoutExpressionIsUnreadable(t *testing.T) {
	doc := `{"name": "x", "pages": [{"pageItems": [{"label": "Q", "visibilityCondition": {}}]}]}`
	form, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	q := form.Questions[0]
	if !q.Conditional() {
		t.Fatalf("expected question to stay conditional")
	}
	if q.Visibility.Operator != "" || len(q.Visibility.References()) != 0 {
		t.Fatalf("expected unreadable expression, got %#v", q.Visibility)
	}
}

func TestDecodeRejectsEmptyAndMalformedDocuments(t *testing.T) {
	if _, err := Decode([]byte("   ")); err == nil {
		t.Fatalf("expected error for empty document")
	}
	if _, err := Decode([]byte("pages: [unterminated")); err == nil {
		t.Fatalf("expected error for malformed document")
	}
}
