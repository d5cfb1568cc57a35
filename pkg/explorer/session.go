package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goliatone/go-formcover/pkg/constraint"
	"github.com/goliatone/go-formcover/pkg/questionnaire"
	"github.com/goliatone/go-formcover/pkg/validator"
)

// NotShown is the choice offered when a test variable may stay hidden.
const NotShown = "(not shown)"

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPreset fixes answers before the walk starts. Preset questions are not
// asked.
func WithPreset(assignment constraint.Assignment) Option {
	return func(s *Session) {
		s.preset = assignment.Clone()
	}
}

// Session explores one model.
type Session struct {
	model  *constraint.Model
	driver PromptDriver
	logger *slog.Logger
	preset constraint.Assignment
}

// New creates a session. Without WithPromptDriver it prompts on the
// terminal through survey.
func New(model *constraint.Model, options ...Option) *Session {
	s := &Session{model: model, logger: slog.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	return s
}

// Walk asks one path through the form and returns the validated outcome.
// Every offered answer is consistent with the answers already given, so a
// finished walk is always valid.
func (s *Session) Walk(ctx context.Context) (validator.Outcome, error) {
	if s.model == nil {
		return validator.Outcome{}, errors.New("explorer: model is nil")
	}
	assignment := s.preset.Clone()
	if assignment == nil {
		assignment = constraint.Assignment{}
	}
	if out := validator.ValidateFor("explore", assignment, s.model); !out.OK {
		return out, fmt.Errorf("explorer: preset answers rejected: %s", out.Reason)
	}

	form := s.model.Form()
	for _, n := range s.model.StaticVariables() {
		if _, fixed := assignment[n]; fixed {
			continue
		}
		if err := ctx.Err(); err != nil {
			return validator.Outcome{}, err
		}

		choices := s.choices(assignment, n)
		switch {
		case len(choices) == 0:
			return validator.Outcome{}, fmt.Errorf("explorer: no consistent answer for question %d", n)
		case len(choices) == 1 && choices[0] == constraint.Unset:
			assignment[n] = constraint.Unset
			continue
		}

		q, _ := form.Question(n)
		options := make([]string, len(choices))
		for i, c := range choices {
			options[i] = displayChoice(q, c)
		}
		idx, err := s.driver.Select(ctx, SelectConfig{
			Question: q.Number,
			Label:    q.Label,
			Options:  options,
			Help:     s.choiceHelp(n, len(choices)),
		})
		if err != nil {
			return validator.Outcome{}, err
		}
		if idx < 0 || idx >= len(choices) {
			return validator.Outcome{}, fmt.Errorf("explorer: choice %d out of range for question %d", idx, n)
		}
		assignment[n] = choices[idx]
		s.logger.Debug("explorer: answered", slog.Int("question", n), slog.String("value", choices[idx]))
	}

	out := validator.ValidateFor("explore", assignment, s.model)
	if !out.OK {
		return out, fmt.Errorf("explorer: path rejected: %s", out.Reason)
	}
	return out, nil
}

// choiceHelp explains how many candidate answers the earlier choices ruled out.
func (s *Session) choiceHelp(n, offered int) string {
	enc, _ := s.model.Encoding(n)
	total := enc.Len()
	if offered >= total {
		return "Every answer fits the path so far. " + NotShown + " leaves the question unanswered."
	}
	return fmt.Sprintf("%d of %d answers contradict earlier choices and are not offered.", total-offered, total)
}

// Run repeats Walk, printing each path, until the user declines another.
func (s *Session) Run(ctx context.Context) ([]validator.Outcome, error) {
	var outcomes []validator.Outcome
	for {
		out, err := s.Walk(ctx)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, out)
		if err := s.driver.Info(ctx, Summary(s.model.Form(), s.model.Classification(), out)); err != nil {
			return outcomes, err
		}
		again, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Explore another path?"})
		if err != nil {
			return outcomes, err
		}
		if !again {
			return outcomes, nil
		}
	}
}

// choices returns the values of n, plus Unset when n may stay hidden, that
// are satisfiable together with assignment.
func (s *Session) choices(assignment constraint.Assignment, n int) []string {
	enc, _ := s.model.Encoding(n)
	candidates := append([]string{constraint.Unset}, enc.Values()...)

	var out []string
	for _, value := range candidates {
		trial := assignment.Clone()
		trial[n] = value
		if validator.ValidateFor("explore", trial, s.model).OK {
			out = append(out, value)
		}
	}
	if len(out) > 1 && out[0] == constraint.Unset {
		// list the hidden choice last
		out = append(out[1:], constraint.Unset)
	}
	return out
}

func displayChoice(q questionnaire.Question, value string) string {
	if value == constraint.Unset {
		return NotShown
	}
	for _, opt := range q.Options {
		if opt.Value == value && opt.Display != "" && opt.Display != value {
			return fmt.Sprintf("%s (%s)", value, opt.Display)
		}
	}
	return value
}

// Summary formats the questions an outcome shows.
func Summary(form *questionnaire.Form, classification questionnaire.Classification, out validator.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Visible questions (%d):", len(out.Visible))
	for _, n := range out.Visible {
		q, _ := form.Question(n)
		fmt.Fprintf(&b, "\n  Q%d %s", n, q.Label)
		if classification.IsTestVariable(n) {
			if value, ok := out.Complete[n]; ok && value != constraint.Unset {
				fmt.Fprintf(&b, " = %s", value)
			}
		}
	}
	return b.String()
}
