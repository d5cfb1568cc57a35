package report

import (
	"context"
	"io"
	"strings"
	"unicode"

	"github.com/goliatone/go-formcover/pkg/plan"
)

// DefaultRenderer is the renderer used when none is named.
const DefaultRenderer = "text"

// Renderer writes one representation of a plan.
type Renderer interface {
	Name() string
	ContentType() string
	// FileSuffix is appended to the form's safe name when the output is
	// written to a directory, e.g. "_test_plan.txt".
	FileSuffix() string
	Render(ctx context.Context, p *plan.Plan, w io.Writer) error
}

// SafeName keeps letters, digits, spaces, '-' and '_' and replaces every
// other rune with '_'.
func SafeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, name)
}

// FileName returns the output file name for p rendered by r.
func FileName(p *plan.Plan, r Renderer) string {
	return SafeName(p.FormName) + r.FileSuffix()
}
