package runner

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed)
	skippedColor = color.New(color.FgYellow)
)

// PrintSummary writes a human-readable per-stack result table to w.
func PrintSummary(w io.Writer, result *RunResult) {
	if len(result.Results) == 0 {
		return
	}

	fmt.Fprintf(w, "\nRun %s (%s)\n", result.RunID, result.State)
	for _, res := range result.Results {
		marker := outcomeMarker(res.Outcome)
		fmt.Fprintf(w, "  %s %-24s %s", marker, res.Stack.Name, res.Outcome)
		if res.Outcome == OutcomeFailure && res.ExitCode >= 0 {
			fmt.Fprintf(w, " (exit code %d)", res.ExitCode)
		}
		fmt.Fprintln(w)
	}

	succeeded, failed, skipped := result.Counts()
	fmt.Fprintf(w, "%d succeeded, %d failed, %d skipped\n", succeeded, failed, skipped)
}

func outcomeMarker(o Outcome) string {
	switch o {
	case OutcomeSuccess:
		return successColor.Sprint("✓")
	case OutcomeFailure:
		return failureColor.Sprint("✗")
	case OutcomeSkipped:
		return skippedColor.Sprint("-")
	default:
		return "?"
	}
}
