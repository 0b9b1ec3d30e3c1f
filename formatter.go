package quicktest

import (
	"fmt"
	"time"

	"github.com/hwlab/quicktest/types"
)

// formatDuration formats a duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// verdictString returns a short symbol-prefixed string for a verdict
func verdictString(v types.Verdict) string {
	switch v {
	case types.VerdictPass:
		return "✓ pass"
	case types.VerdictTestNA:
		return "- testna"
	case types.VerdictWarn:
		return "! warn"
	default:
		return "✗ fail"
	}
}
