package questionnaire

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const unknownField = "Unknown"

// DecodeOption customises Decode.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	logger *slog.Logger
}

// WithLogger routes decode warnings (duplicate option values, unreadable
// rules) to the given logger.
func WithLogger(logger *slog.Logger) DecodeOption {
	return func(cfg *decodeConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

type rawDocument struct {
	Name  string    `json:"name" yaml:"name"`
	Pages []rawPage `json:"pages" yaml:"pages"`
}

type rawPage struct {
	Items []rawItem `json:"pageItems" yaml:"pageItems"`
}

type rawItem struct {
	Label               string        `json:"label" yaml:"label"`
	Type                string        `json:"type" yaml:"type"`
	Hidden              bool          `json:"hidden" yaml:"hidden"`
	Required            bool          `json:"required" yaml:"required"`
	Options             []rawOption   `json:"options" yaml:"options"`
	VisibilityCondition *rawCondition `json:"visibilityCondition" yaml:"visibilityCondition"`
	VisibilityRule      string        `json:"visibilityRule" yaml:"visibilityRule"`
	DefaultAnswer       any           `json:"defaultAnswer" yaml:"defaultAnswer"`
}

type rawOption struct {
	DataValue    any `json:"dataValue" yaml:"dataValue"`
	DisplayValue any `json:"displayValue" yaml:"displayValue"`
}

type rawCondition struct {
	Expression *rawNode `json:"expression" yaml:"expression"`
}

// rawNode covers both expression nodes and their operands: logical nodes
// nest rawNodes in Left/Right, comparisons carry {label} on the left and
// {value} (or {values}) on the right.
type rawNode struct {
	Operator string   `json:"operator" yaml:"operator"`
	Left     *rawNode `json:"left" yaml:"left"`
	Right    *rawNode `json:"right" yaml:"right"`
	Label    string   `json:"label" yaml:"label"`
	Value    any      `json:"value" yaml:"value"`
	Values   []any    `json:"values" yaml:"values"`
}

// Decode parses a form document. JSON is tried first, YAML second, mirroring
// the loaders elsewhere in this module. Questions are numbered by overall
// item order starting at 1.
func Decode(data []byte, options ...DecodeOption) (*Form, error) {
	cfg := decodeConfig{logger: slog.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("questionnaire: document is empty")
	}

	var doc rawDocument
	if jsonErr := json.Unmarshal(data, &doc); jsonErr != nil {
		doc = rawDocument{}
		if yamlErr := yaml.Unmarshal(data, &doc); yamlErr != nil {
			return nil, fmt.Errorf("questionnaire: parse document: invalid JSON (%v) or YAML: %w", jsonErr, yamlErr)
		}
	}

	name := strings.TrimSpace(doc.Name)
	if name == "" {
		name = "questionnaire"
	}
	form := &Form{Name: name}

	number := 1
	for _, page := range doc.Pages {
		for _, item := range page.Items {
			form.Questions = append(form.Questions, cfg.question(number, item))
			number++
		}
	}
	return form, nil
}

func (cfg decodeConfig) question(number int, item rawItem) Question {
	q := Question{
		Number:   number,
		Label:    orUnknown(item.Label),
		Type:     orUnknown(item.Type),
		Hidden:   item.Hidden,
		Required: item.Required,
	}

	seen := make(map[string]struct{}, len(item.Options))
	for _, raw := range item.Options {
		value := stringify(raw.DataValue)
		if _, dup := seen[value]; dup {
			cfg.logger.Warn("questionnaire: duplicate option value ignored",
				slog.Int("question", number), slog.String("label", q.Label), slog.String("value", value))
			continue
		}
		seen[value] = struct{}{}
		q.Options = append(q.Options, Option{Value: value, Display: stringify(raw.DisplayValue)})
	}

	switch {
	case item.VisibilityCondition != nil:
		q.Visibility = convertNode(item.VisibilityCondition.Expression)
	case strings.TrimSpace(item.VisibilityRule) != "":
		expr, err := ParseRule(item.VisibilityRule)
		if err != nil {
			cfg.logger.Warn("questionnaire: unreadable visibility rule",
				slog.Int("question", number), slog.String("label", q.Label), slog.String("error", err.Error()))
			expr = &Expression{}
		}
		q.Visibility = expr
	}

	if item.DefaultAnswer != nil {
		value := stringify(item.DefaultAnswer)
		q.DefaultAnswer = &value
	}
	return q
}

// convertNode never returns nil: a missing node becomes an unreadable
// expression so the question still counts as conditional.
func convertNode(node *rawNode) *Expression {
	if node == nil {
		return &Expression{}
	}
	op := Operator(strings.ToUpper(strings.TrimSpace(node.Operator)))
	if op.Logical() {
		return &Expression{
			Operator: op,
			Left:     convertOperand(node.Left),
			Right:    convertOperand(node.Right),
		}
	}

	expr := &Expression{Operator: op}
	if node.Left != nil {
		expr.Label = strings.TrimSpace(node.Left.Label)
	}
	if node.Right != nil {
		switch {
		case node.Right.Value != nil:
			value := stringify(node.Right.Value)
			expr.Value = &value
		case len(node.Right.Values) > 0 && node.Right.Values[0] != nil:
			value := stringify(node.Right.Values[0])
			expr.Value = &value
		}
	}
	return expr
}

func convertOperand(node *rawNode) *Expression {
	if node == nil {
		return nil
	}
	return convertNode(node)
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return unknownField
	}
	return value
}

func stringify(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprint(typed)
	}
}
