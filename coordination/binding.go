package coordination

import (
	"time"

	"github.com/deosha/hospital-coordicore/agents"
	"github.com/deosha/hospital-coordicore/ledger"
)

// buildTransaction translates an accepted proposal and its scenario context
// into a ledger transaction. The transaction id is derived from the
// session id so a session can never double-submit.
func buildTransaction(session *CoordinationSession, proposal agents.Proposal, now time.Time) *ledger.Transaction {
	details := map[string]any{
		"item_name":         proposal.ItemName,
		"proposed_quantity": proposal.ProposedQuantity,
		"proposed_cost":     proposal.ProposedCost,
		"amount":            proposal.ProposedCost,
		"quantity":          proposal.ProposedQuantity,
		"confidence":        proposal.Confidence,
		"participants":      append([]string(nil), session.Participants...),
	}
	if v, ok := session.Context["budget_remaining"]; ok {
		details["available_budget"] = v
	}
	if v, ok := session.Context["storage_available"]; ok {
		details["available_storage"] = v
	}

	return &ledger.Transaction{
		TransactionID: "tx-" + session.SessionID,
		AgentName:     session.Initiator,
		ActionType:    "COORDINATED_PURCHASE",
		Details:       details,
		Timestamp:     now,
	}
}
