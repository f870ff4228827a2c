package cp

import "sort"

// PValue computes the conformal p-value of a test score ranked against a
// calibration sample sorted ascending:
//
//	p = (#{i : sortedCalibration[i] >= testScore} + 1) / (len(sortedCalibration) + 1)
//
// The comparison is non-strict: calibration scores equal to the test score
// count toward the numerator. Both that and the two +1 terms are required
// for the validity guarantee. The result is always in (0, 1]: an empty
// calibration sample yields 1, and a test score above every calibration
// score yields 1/(n+1).
func PValue(testScore float64, sortedCalibration []float64) float64 {
	first := sort.SearchFloat64s(sortedCalibration, testScore)
	atLeast := len(sortedCalibration) - first
	return float64(atLeast+1) / float64(len(sortedCalibration)+1)
}
