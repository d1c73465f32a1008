package epe

const (
	readinessBase = 75
	readinessMin  = 40
	readinessMax  = 95
)

// Readiness maps recent recovery signals to a score in [40, 95]. Deductions
// are independent and additive.
func Readiness(in Input) int {
	score := readinessBase
	if hrv, ok := hrvOf(in); ok && hrv < 50 {
		score -= 10
	}
	if sleep, ok := sleepScoreOf(in); ok && sleep < 70 {
		score -= 8
	}
	if present(in.StressBaseline) && *in.StressBaseline >= 4 {
		score -= 5
	}
	if present(in.MotivationBaseline) && *in.MotivationBaseline <= 2 {
		score -= 5
	}
	return min(readinessMax, max(readinessMin, score))
}

// Intensity labels a training session for a given readiness score.
func Intensity(readiness int) string {
	if readiness < 60 {
		return "moderate"
	}
	return "progressive"
}
