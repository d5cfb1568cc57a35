package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formcover/pkg/explorer"
	"github.com/goliatone/go-formcover/pkg/orchestrator"
	"github.com/goliatone/go-formcover/pkg/source"
)

func newExploreCommand(a *app) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "explore <form>",
		Short: "Walk the form interactively, one test variable at a time",
		Long: `Explore asks for each test variable in question order and only offers
answers that keep the form consistent with the answers already given.
After each path it prints the visible questions. Use --set to fix some
answers up front.`,
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
			preset, err := parseAssignment(model.Form(), sets)
			if err != nil {
				return err
			}

			session := explorer.New(model,
				explorer.WithPromptDriver(a.driver()),
				explorer.WithLogger(a.logger),
				explorer.WithPreset(preset),
			)
			outcomes, err := session.Run(cmd.Context())
			if errors.Is(err, explorer.ErrAborted) {
				fmt.Fprintln(a.stdout, "Exploration aborted.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Explored %d path(s).\n", len(outcomes))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "fixed answer as Label=Value (repeatable)")
	return cmd
}
