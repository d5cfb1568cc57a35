package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/goliatone/go-formcover/pkg/plan"
)

var (
	okColor    = color.New(color.FgGreen, color.Bold)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	dimColor   = color.New(color.Faint)
)

func printSummary(w io.Writer, p *plan.Plan) {
	fmt.Fprintf(w, "\n%s: %d test cases over %d test variables\n", p.FormName, p.Stats.Cases, len(p.Variables))

	coverage := fmt.Sprintf("%d/%d (%.1f%%)", p.Stats.Covered, p.Stats.Reachable, p.Stats.Coverage)
	if len(p.Uncovered) == 0 {
		fmt.Fprintf(w, "Coverage: %s\n", okColor.Sprint(coverage))
	} else {
		fmt.Fprintf(w, "Coverage: %s, uncovered %s\n", warnColor.Sprint(coverage), questionList(p.Uncovered))
	}
	if len(p.Unreachable) > 0 {
		numbers := make([]int, len(p.Unreachable))
		for i, u := range p.Unreachable {
			numbers[i] = u.Question
		}
		fmt.Fprintf(w, "Unreachable: %s\n", errorColor.Sprint(questionList(numbers)))
	}
	for _, f := range p.Fallbacks {
		fmt.Fprintf(w, "%s Q%d assumed visible: %s\n", warnColor.Sprint("!"), f.Question, f.Reason)
	}
	fmt.Fprintln(w, dimColor.Sprintf("run %s, seed %d", p.RunID, p.Seed))
}

func questionList(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = "Q" + strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
