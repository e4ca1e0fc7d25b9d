package coordination

import (
	"time"

	"github.com/deosha/hospital-coordicore/agents"
)

// NegotiationRound is one proposal-plus-critiques cycle.
type NegotiationRound struct {
	RoundNumber int                       `json:"round_number"`
	Proposal    agents.Proposal           `json:"proposal"`
	Critiques   []agents.CritiqueDecision `json:"critiques"`
	Duration    time.Duration             `json:"duration"`
}

// allAccepted reports whether every critique in the round is ACCEPT.
func (r NegotiationRound) allAccepted() bool {
	for _, c := range r.Critiques {
		if c.Verdict != agents.VerdictAccept {
			return false
		}
	}
	return true
}
