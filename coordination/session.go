package coordination

import (
	"time"

	"github.com/deosha/hospital-coordicore/agents"
)

// State is a CoordinationSession's position in the state machine.
type State string

const (
	StateInitiated             State = "INITIATED"
	StateCollectingConstraints State = "COLLECTING_CONSTRAINTS"
	StateGeneratingProposal    State = "GENERATING_PROPOSAL"
	StateNegotiating           State = "NEGOTIATING"
	StateValidating            State = "VALIDATING"
	StateExecuting             State = "EXECUTING"
	StateCompleted             State = "COMPLETED"
	StateFailed                State = "FAILED"
	StateTimeout               State = "TIMEOUT"
)

// IsTerminal reports whether s is one of the frozen terminal states.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateTimeout
}

// LedgerReceipt is recorded on a session after a successful EXECUTE step.
type LedgerReceipt struct {
	BlockIndex    int64  `json:"block_index"`
	BlockHash     string `json:"block_hash"`
	TransactionID string `json:"transaction_id"`
}

// CoordinationSession is one execution of the eight-step protocol. Only the owning engine task mutates a session; external readers
// must either wait for a terminal state or use Snapshot, which copies every
// field so callers can't observe or corrupt in-progress mutation.
type CoordinationSession struct {
	SessionID     string                      `json:"session_id"`
	State         State                       `json:"state"`
	Initiator     string                      `json:"initiator"`
	Participants  []string                    `json:"participants"`
	Intent        string                      `json:"intent"`
	Context       agents.Context              `json:"context"`
	Constraints   map[string]agents.ConstraintRecord `json:"constraints"`
	Rounds        []NegotiationRound          `json:"rounds"`
	FinalProposal *agents.Proposal            `json:"final_proposal,omitempty"`
	Agreement     bool                        `json:"agreement"`
	LedgerReceipt *LedgerReceipt              `json:"ledger_receipt,omitempty"`
	Messages      []Message                   `json:"messages"`
	FailureReason string                      `json:"failure_reason,omitempty"`
	StartedAt     time.Time                   `json:"started_at"`
	EndedAt       time.Time                   `json:"ended_at,omitempty"`
}

// Snapshot returns a deep-enough copy of s: the session's own slices and
// maps (Participants, Context, Constraints, Rounds, Messages) and the
// FinalProposal/LedgerReceipt values are copied, so appending to, removing
// from or replacing entries of the snapshot never affects the session the
// engine owns. Values nested inside those entries (a message's Recipients
// and Content, a round's Critiques, nested Context values) are shared with
// the session, not copied.
func (s *CoordinationSession) Snapshot() CoordinationSession {
	cp := *s

	cp.Participants = append([]string(nil), s.Participants...)

	cp.Context = make(agents.Context, len(s.Context))
	for k, v := range s.Context {
		cp.Context[k] = v
	}

	cp.Constraints = make(map[string]agents.ConstraintRecord, len(s.Constraints))
	for k, v := range s.Constraints {
		cp.Constraints[k] = v
	}

	cp.Rounds = append([]NegotiationRound(nil), s.Rounds...)
	cp.Messages = append([]Message(nil), s.Messages...)

	if s.FinalProposal != nil {
		p := *s.FinalProposal
		cp.FinalProposal = &p
	}
	if s.LedgerReceipt != nil {
		r := *s.LedgerReceipt
		cp.LedgerReceipt = &r
	}
	return cp
}

func (s *CoordinationSession) appendMessage(msgIDFunc func() string, now time.Time, sender string, recipients []string, kind Kind, content map[string]any) {
	s.Messages = append(s.Messages, Message{
		MessageID:  msgIDFunc(),
		SessionID:  s.SessionID,
		Timestamp:  now,
		Sender:     sender,
		Recipients: recipients,
		Kind:       kind,
		Content:    content,
	})
}

func (s *CoordinationSession) otherParticipants(id string) []string {
	out := make([]string, 0, len(s.Participants))
	for _, p := range s.Participants {
		if p != id {
			out = append(out, p)
		}
	}
	return out
}
