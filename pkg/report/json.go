package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/goliatone/go-formcover/pkg/plan"
)

// JSON writes the plan as indented JSON for downstream tooling.
type JSON struct{}

func (JSON) Name() string        { return "json" }
func (JSON) ContentType() string { return "application/json" }
func (JSON) FileSuffix() string  { return "_test_plan.json" }

func (JSON) Render(ctx context.Context, p *plan.Plan, w io.Writer) error {
	if p == nil {
		return fmt.Errorf("report: plan is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}
