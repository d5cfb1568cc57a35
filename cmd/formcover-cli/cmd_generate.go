package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formcover/pkg/orchestrator"
	"github.com/goliatone/go-formcover/pkg/plan"
	"github.com/goliatone/go-formcover/pkg/report"
	"github.com/goliatone/go-formcover/pkg/source"
)

func newGenerateCommand(a *app) *cobra.Command {
	var toStdout bool
	cmd := &cobra.Command{
		Use:   "generate <form> [output_dir]",
		Short: "Generate the minimal test plan for a form",
		Long: `Generate loads the form, builds its constraint model, searches for valid
answer combinations and writes the selected test cases.

Output files are named after the form: <name>_test_plan.txt for the text
renderer, <name>_test_plan.json for json, and the two index CSVs for
gating-csv and questions-csv. The output directory defaults to the form's
directory.

Forms without test variables, or without any valid combination, are
reported and exit with status 0.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := source.Detect(args[0])
			if err != nil {
				return err
			}
			if toStdout {
				p, ok, err := a.generate(cmd, src)
				if err != nil || !ok {
					return err
				}
				return a.renderTo(cmd, p, func(r report.Renderer, data []byte) error {
					_, err := a.stdout.Write(data)
					return err
				})
			}
			return a.writePlan(cmd, src, a.outputDir(src, args))
		},
	}
	cmd.Flags().StringVar(&a.overrides.format, "format", "", "comma separated renderers: text, json, gating-csv, questions-csv")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write reports to stdout instead of files")
	return cmd
}

// writePlan generates the plan and writes one file per configured renderer
// into dir.
func (a *app) writePlan(cmd *cobra.Command, src source.Source, dir string) error {
	p, ok, err := a.generate(cmd, src)
	if err != nil || !ok {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	err = a.renderTo(cmd, p, func(r report.Renderer, data []byte) error {
		path := filepath.Join(dir, report.FileName(p, r))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(a.stdout, "[OK] %s: %s\n", r.Name(), path)
		return nil
	})
	if err != nil {
		return err
	}
	printSummary(a.stdout, p)
	return nil
}

// generate runs the pipeline. ok is false when the form has nothing to test;
// the reason has already been printed.
func (a *app) generate(cmd *cobra.Command, src source.Source) (*plan.Plan, bool, error) {
	orch, err := a.orchestrator(src)
	if err != nil {
		return nil, false, err
	}
	p, err := orch.Generate(cmd.Context(), orchestrator.Request{Source: src})
	switch {
	case errors.Is(err, orchestrator.ErrNoTestVariables):
		fmt.Fprintln(a.stdout, "No test variables found: no question changes which other questions are shown. Nothing to generate.")
		return nil, false, nil
	case errors.Is(err, orchestrator.ErrNoValidAssignments):
		fmt.Fprintln(a.stdout, "No valid answer combinations found. Check the form's visibility rules.")
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return p, true, nil
}

func (a *app) renderTo(cmd *cobra.Command, p *plan.Plan, emit func(report.Renderer, []byte) error) error {
	registry, err := report.NewDefaultRegistry()
	if err != nil {
		return err
	}
	for _, name := range a.cfg.Formats() {
		r, err := registry.Get(name)
		if err != nil {
			return fmt.Errorf("%w (available: %v)", err, registry.List())
		}
		var buf bytes.Buffer
		if err := r.Render(cmd.Context(), p, &buf); err != nil {
			return err
		}
		if err := emit(r, buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}
