package policy

import "fmt"

// checkStorage applies when Details["quantity"] is present. It
// passes when quantity > 0 and, if present, quantity <= available_storage.
func checkStorage(details map[string]any, _ Config) (bool, CheckResult) {
	quantity, ok := numberAt(details, "quantity")
	if !ok {
		return false, CheckResult{}
	}

	if quantity <= 0 {
		return true, CheckResult{Valid: false, Reason: "STORAGE_EXCEEDED: quantity must be positive"}
	}

	available, hasStorage := numberAt(details, "available_storage")
	if !hasStorage {
		return true, CheckResult{Valid: true, Reason: "storage not constrained"}
	}
	if quantity > available {
		return true, CheckResult{
			Valid:     false,
			Reason:    fmt.Sprintf("STORAGE_EXCEEDED: quantity %.2f exceeds available storage %.2f", quantity, available),
			Remaining: floatPtr(available),
		}
	}
	return true, CheckResult{Valid: true, Reason: "within storage", Remaining: floatPtr(available - quantity)}
}
