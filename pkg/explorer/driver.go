package explorer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted is returned when the tester interrupts a prompt or stdin
// closes mid-walk.
var ErrAborted = errors.New("explorer: aborted")

// ConfirmConfig is a yes/no question between walks.
type ConfirmConfig struct {
	Message string
	Default bool
}

// SelectConfig asks for one test variable's answer. Options are display
// strings in the order of the session's candidate values.
type SelectConfig struct {
	Question int
	Label    string
	Options  []string
	// Help is shown on '?' and usually explains why some answers are missing.
	Help string
}

// Prompt renders the question header used by terminal drivers.
func (c SelectConfig) Prompt() string {
	return fmt.Sprintf("Q%d %s", c.Question, c.Label)
}

// PromptDriver is how a Session talks to the tester.
type PromptDriver interface {
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver prompts on the process terminal. Path summaries are
// written to out, or stdout when nil.
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out}
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var again bool
	err := survey.AskOne(&survey.Confirm{Message: cfg.Message, Default: cfg.Default}, &again)
	return again, abortOn(err)
}

func (d *surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	prompt := &survey.Select{
		Message:  cfg.Prompt(),
		Options:  cfg.Options,
		Help:     cfg.Help,
		PageSize: min(len(cfg.Options), 12),
	}
	var picked int
	if err := survey.AskOne(prompt, &picked); err != nil {
		return 0, abortOn(err)
	}
	return picked, nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// abortOn maps an interrupt or closed stdin to ErrAborted.
func abortOn(err error) error {
	if errors.Is(err, terminal.InterruptErr) || errors.Is(err, io.EOF) {
		return ErrAborted
	}
	return err
}
