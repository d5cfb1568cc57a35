package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formcover/pkg/questionnaire"
)

// Transformer mutates a decoded form before the constraint model is built.
// Implementations can pin hidden defaults or rewrite conditions.
type Transformer interface {
	Transform(ctx context.Context, form *questionnaire.Form) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, form *questionnaire.Form) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, form *questionnaire.Form) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, form)
}

// PresetTransformer applies declarative per-question patches, keyed by
// label. A typical use is resolving templated hidden defaults for one
// environment:
//
//	questions:
//	  Owner: {defaultAnswer: root}
//	  Secret: {visibilityRule: 'Consent == "yes"'}
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Questions map[string]questionPatch `json:"questions" yaml:"questions"`
}

type questionPatch struct {
	Hidden         *bool   `json:"hidden" yaml:"hidden"`
	DefaultAnswer  *string `json:"defaultAnswer" yaml:"defaultAnswer"`
	VisibilityRule *string `json:"visibilityRule" yaml:"visibilityRule"`
}

// NewPresetTransformer parses a preset document (YAML or JSON).
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the patches onto form. Unknown labels are an error so
// stale presets surface early.
func (t *PresetTransformer) Transform(ctx context.Context, form *questionnaire.Form) error {
	if form == nil {
		return errors.New("preset transformer: form is nil")
	}
	for label, patch := range t.document.Questions {
		if err := ctx.Err(); err != nil {
			return err
		}
		idx := questionIndex(form, label)
		if idx < 0 {
			return fmt.Errorf("preset transformer: question %q not found", label)
		}
		if err := applyQuestionPatch(&form.Questions[idx], patch); err != nil {
			return fmt.Errorf("preset transformer: question %q: %w", label, err)
		}
	}
	return nil
}

func applyQuestionPatch(q *questionnaire.Question, patch questionPatch) error {
	if patch.Hidden != nil {
		q.Hidden = *patch.Hidden
	}
	if patch.DefaultAnswer != nil {
		value := *patch.DefaultAnswer
		q.DefaultAnswer = &value
	}
	if patch.VisibilityRule != nil {
		rule := strings.TrimSpace(*patch.VisibilityRule)
		if rule == "" {
			q.Visibility = nil
		} else {
			expr, err := questionnaire.ParseRule(rule)
			if err != nil {
				return err
			}
			q.Visibility = expr
		}
	}
	return nil
}

func questionIndex(form *questionnaire.Form, label string) int {
	for i, q := range form.Questions {
		if q.Label == label {
			return i
		}
	}
	return -1
}
