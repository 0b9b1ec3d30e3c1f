package runner

import (
	"github.com/hwlab/quicktest/types"
)

// Classify maps the failure signals collected during one test run to a single
// verdict. The rules are evaluated in order and the first match wins:
//
//  1. no failures -> PASS
//  2. the model is forced-NA, or any failure is tagged not-applicable -> TESTNA
//  3. the model is forced-warn -> WARN
//  4. the body flagged a known common fault and suppression is enabled -> TESTNA
//  5. otherwise -> FAIL
//
// Note that rule 2 fires even when not-applicable signals are mixed with
// genuine failures; the whole test is reported TESTNA in that case.
func Classify(failures []types.FailureRecord, modelForcedNA, modelForcedWarn, hadKnownCommonFault, suppressKnownCommonFaults bool) types.Verdict {
	if len(failures) == 0 {
		return types.VerdictPass
	}
	if modelForcedNA || anyNotApplicable(failures) {
		return types.VerdictTestNA
	}
	if modelForcedWarn {
		return types.VerdictWarn
	}
	if hadKnownCommonFault && suppressKnownCommonFaults {
		return types.VerdictTestNA
	}
	return types.VerdictFail
}

func anyNotApplicable(failures []types.FailureRecord) bool {
	for _, f := range failures {
		if f.Kind == types.FailureKindNotApplicable {
			return true
		}
	}
	return false
}
