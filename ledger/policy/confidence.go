package policy

import "fmt"

// checkConfidence applies when Details["confidence"] is present.
// It passes when confidence >= cfg.MinConfidence.
func checkConfidence(details map[string]any, cfg Config) (bool, CheckResult) {
	confidence, ok := numberAt(details, "confidence")
	if !ok {
		return false, CheckResult{}
	}

	if confidence < cfg.MinConfidence {
		return true, CheckResult{
			Valid:  false,
			Reason: fmt.Sprintf("CONFIDENCE_TOO_LOW: confidence %.2f below minimum %.2f", confidence, cfg.MinConfidence),
		}
	}
	return true, CheckResult{Valid: true, Reason: "confidence acceptable"}
}
