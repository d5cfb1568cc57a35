package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formcover/pkg/constraint"
	"github.com/goliatone/go-formcover/pkg/explorer"
	"github.com/goliatone/go-formcover/pkg/orchestrator"
	"github.com/goliatone/go-formcover/pkg/questionnaire"
	"github.com/goliatone/go-formcover/pkg/source"
	"github.com/goliatone/go-formcover/pkg/validator"
)

func newValidateCommand(a *app) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "validate <form> --set Label=Value ...",
		Short: "Check one answer combination and show the questions it reveals",
		Long: `Validate checks a partial answer assignment against the form's rules.
Each --set names a test variable by label. A valid assignment prints the
visible questions and the completed answers; an invalid one prints the
reason and exits with status 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := source.Detect(args[0])
			if err != nil {
				return err
			}
			orch, err := a.orchestrator(src)
			if err != nil {
				return err
			}
			model, err := orch.Model(cmd.Context(), orchestrator.Request{Source: src})
			if err != nil {
				return err
			}
			assignment, err := parseAssignment(model.Form(), sets)
			if err != nil {
				return err
			}

			out := validator.Validate(assignment, model)
			if !out.OK {
				fmt.Fprintf(a.stdout, "%s %s\n", errorColor.Sprint("INVALID:"), out.Reason)
				return fmt.Errorf("assignment rejected (%s)", out.Kind)
			}
			fmt.Fprintln(a.stdout, okColor.Sprint("VALID"))
			fmt.Fprintln(a.stdout, explorer.Summary(model.Form(), model.Classification(), out))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "answer as Label=Value (repeatable)")
	return cmd
}

// parseAssignment resolves Label=Value pairs to question numbers. A value
// of "-" leaves the question unanswered.
func parseAssignment(form *questionnaire.Form, pairs []string) (constraint.Assignment, error) {
	assignment := constraint.Assignment{}
	for _, pair := range pairs {
		label, value, ok := strings.Cut(pair, "=")
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			return nil, fmt.Errorf("invalid --set %q: want Label=Value", pair)
		}
		n := form.NumberOf(label)
		if n == 0 {
			return nil, fmt.Errorf("unknown question label %q", label)
		}
		if value == "-" {
			value = constraint.Unset
		}
		assignment[n] = value
	}
	return assignment, nil
}
