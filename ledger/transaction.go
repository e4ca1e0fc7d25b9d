package ledger

import (
	"time"

	"github.com/deosha/hospital-coordicore/ledger/policy"
)

// ValidationStatus tracks where a transaction sits in the submit/validate
// lifecycle.
type ValidationStatus string

const (
	StatusPending   ValidationStatus = "PENDING"
	StatusValidated ValidationStatus = "VALIDATED"
	StatusRejected  ValidationStatus = "REJECTED"
)

// Transaction is the unit the ledger validates, pools, and batches into
// blocks. Details is an opaque mapping; ledger/policy recognizes a handful
// of well-known keys (amount, quantity, confidence, available_budget,
// available_storage) but the ledger itself never interprets them.
type Transaction struct {
	TransactionID    string                   `json:"transaction_id"`
	AgentName        string                   `json:"agent_name"`
	ActionType       string                   `json:"action_type"`
	Details          map[string]any           `json:"details"`
	Timestamp        time.Time                `json:"timestamp"`
	ValidationStatus ValidationStatus         `json:"validation_status"`
	ValidationReport *policy.ValidationReport `json:"validation_report,omitempty"`
}
