package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formcover/pkg/orchestrator"
	"github.com/goliatone/go-formcover/pkg/questionnaire"
	"github.com/goliatone/go-formcover/pkg/report"
	"github.com/goliatone/go-formcover/pkg/source"
)

func newIndexCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index <form> [output_dir]",
		Short: "Write the gating relationship and question index CSVs",
		Long: `Index writes <name>_gating_relationships.csv (one row per parent/child
visibility reference) and <name>_question_index.csv (one row per visible
question with what gates it and what it gates). No test plan is generated.`,
		Args: cobra.RangeArgs(1, 2),
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
			form, classification := model.Form(), model.Classification()

			dir := a.outputDir(src, args)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			files := []struct {
				label  string
				suffix string
				write  func(io.Writer, *questionnaire.Form, questionnaire.Classification) error
			}{
				{"Gating relationships", report.GatingCSV{}.FileSuffix(), report.WriteGatingCSV},
				{"Question index", report.QuestionIndexCSV{}.FileSuffix(), report.WriteQuestionIndexCSV},
			}
			for _, f := range files {
				var buf bytes.Buffer
				if err := f.write(&buf, form, classification); err != nil {
					return err
				}
				path := filepath.Join(dir, report.SafeName(form.Name)+f.suffix)
				if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				fmt.Fprintf(a.stdout, "[OK] %s: %s\n", f.label, path)
			}
			fmt.Fprintf(a.stdout, "%d questions: %d test variables, %d data collection, %d hidden\n",
				len(form.Questions), len(classification.TestVariables),
				len(classification.DataCollection), len(classification.Hidden))
			return nil
		},
	}
}
