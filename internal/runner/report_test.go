package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	result := &RunResult{RunID: "run-1", State: StateCompleted}
	result.append(StackResult{Stack: mkStack("network"), Outcome: OutcomeSuccess})
	result.append(StackResult{Stack: mkStack("database"), Outcome: OutcomeFailure, ExitCode: 1})
	result.append(StackResult{Stack: mkStack("api"), Outcome: OutcomeSkipped})

	var sb strings.Builder
	PrintSummary(&sb, result)
	out := sb.String()

	require.Contains(t, out, "run-1")
	require.Contains(t, out, "network")
	require.Contains(t, out, "exit code 1")
	require.Contains(t, out, "1 succeeded, 1 failed, 1 skipped")
}

func TestPrintSummaryEmpty(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	PrintSummary(&sb, &RunResult{RunID: "run-2", State: StateCompleted})
	require.Empty(t, sb.String())
}
