package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hwlab/quicktest/types"
)

const (
	MetricsNamespace = "quicktest"
)

var (
	Debug                bool = true
	validVerdicts             = []types.Verdict{types.VerdictPass, types.VerdictFail, types.VerdictTestNA, types.VerdictWarn}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	verdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "verdicts_total",
		Help:      "Count of per-test verdicts",
	}, []string{
		"run_id",
		"batch",
		"test",
		"verdict",
	})

	scopeVerdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "scope_verdicts_total",
		Help:      "Count of escalated batch and package verdicts",
	}, []string{
		"run_id",
		"scope",
		"name",
		"verdict",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of quick-test runs",
	}, []string{
		"run_id",
		"verdict",
	})

	runTestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_total",
		Help:      "Total number of tests in a run",
	}, []string{
		"run_id",
	})

	runTestsPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_passed",
		Help:      "Number of passed tests in a run",
	}, []string{
		"run_id",
	})

	runTestsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_failed",
		Help:      "Number of failed tests in a run",
	}, []string{
		"run_id",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration",
		Help:      "Duration of quick-test runs",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordVerdict counts one classified per-test verdict.
func RecordVerdict(runID string, batch string, test string, verdict types.Verdict) {
	if !isValidVerdict(verdict) {
		log.Error("RecordVerdict - invalid verdict", "verdict", verdict)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "verdicts_total",
			"run_id", runID,
			"batch", batch,
			"test", test,
			"verdict", verdict)
	}
	verdictsTotal.WithLabelValues(runID, batch, test, string(verdict)).Inc()
}

// RecordScope counts one escalated batch or package verdict.
func RecordScope(runID string, scope string, name string, verdict types.Verdict) {
	if !isValidVerdict(verdict) {
		log.Error("RecordScope - invalid verdict", "verdict", verdict)
		return
	}
	scopeVerdictsTotal.WithLabelValues(runID, scope, name, string(verdict)).Inc()
}

// RecordRun records the aggregate outcome of one whole run.
func RecordRun(
	runID string,
	verdict types.Verdict,
	total int,
	passed int,
	failed int,
	duration time.Duration,
) {
	runResults.WithLabelValues(runID, string(verdict)).Set(1)
	runTestsTotal.WithLabelValues(runID).Add(float64(total))
	runTestsPassed.WithLabelValues(runID).Add(float64(passed))
	runTestsFailed.WithLabelValues(runID).Add(float64(failed))
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func isValidVerdict(verdict types.Verdict) bool {
	return slices.Contains(validVerdicts, verdict)
}
