// Package formcover generates minimal test suites for conditionally
// branching questionnaires. The root package re-exports the common entry
// points; pkg/orchestrator holds the pipeline.
package formcover

import (
	"context"
	"io/fs"

	internalLoader "github.com/goliatone/go-formcover/internal/loader"
	"github.com/goliatone/go-formcover/pkg/orchestrator"
	"github.com/goliatone/go-formcover/pkg/plan"
	"github.com/goliatone/go-formcover/pkg/report"
	"github.com/goliatone/go-formcover/pkg/source"
)

// Plan aliases plan.Plan for callers that only use the root package.
type Plan = plan.Plan

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// NewLoader constructs a form loader using the internal implementation while
// keeping the concrete type hidden from consumers.
func NewLoader(options ...source.LoaderOption) source.Loader {
	return internalLoader.New(source.NewLoaderOptions(options...))
}

// GeneratePlan loads the form at src and returns its test plan.
func GeneratePlan(ctx context.Context, src source.Source, options ...orchestrator.Option) (*Plan, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{Source: src})
}

// GeneratePlanFromDocument skips the loader stage.
func GeneratePlanFromDocument(ctx context.Context, doc source.Document, options ...orchestrator.Option) (*Plan, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{Document: &doc})
}

// EmbeddedTemplates exposes the built-in report templates so callers can
// copy and extend them.
func EmbeddedTemplates() fs.FS {
	return report.TemplatesFS()
}
