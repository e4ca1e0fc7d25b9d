package policy

import "fmt"

// checkBudget applies when Details["amount"] is present. It
// passes when amount > 0 and, if present, amount <= available_budget and
// amount <= the configured autonomous cap.
//
// The autonomous cap (max_single_purchase) is enforced even when
// available_budget would otherwise allow the purchase: a purchase above
// the cap always requires escalation regardless of funds on hand. Adjust
// the threshold in Config, not here.
func checkBudget(details map[string]any, cfg Config) (bool, CheckResult) {
	amount, ok := numberAt(details, "amount")
	if !ok {
		return false, CheckResult{}
	}

	if amount <= 0 {
		return true, CheckResult{Valid: false, Reason: "BUDGET_EXCEEDED: amount must be positive"}
	}

	if available, hasBudget := numberAt(details, "available_budget"); hasBudget {
		if amount > available {
			return true, CheckResult{
				Valid:     false,
				Reason:    fmt.Sprintf("BUDGET_EXCEEDED: amount %.2f exceeds available budget %.2f", amount, available),
				Remaining: floatPtr(available),
			}
		}
	}

	if amount > cfg.MaxSinglePurchase {
		return true, CheckResult{
			Valid:  false,
			Reason: fmt.Sprintf("BUDGET_OVER_LIMIT: amount %.2f exceeds autonomous limit %.2f", amount, cfg.MaxSinglePurchase),
		}
	}

	remaining := cfg.MaxSinglePurchase - amount
	if available, hasBudget := numberAt(details, "available_budget"); hasBudget {
		remaining = available - amount
	}
	return true, CheckResult{Valid: true, Reason: "within budget", Remaining: floatPtr(remaining)}
}
