// Package index maintains secondary lookups over validated ledger
// transactions and coordination sessions, so a caller can answer "what has
// this agent done" without scanning every block or every session. It
// holds no state the core doesn't already own a copy of — losing the
// index and rebuilding it by replaying events loses nothing.
package index

import "sync"

// Index subscribes to ledger and coordination events and keeps two
// in-memory lookup tables up to date.
type Index struct {
	mu                    sync.RWMutex
	transactionsByAgent   map[string][]string
	sessionsByParticipant map[string][]string
}

// New creates an empty Index. Call Subscribe with the emitters whose events
// should feed it.
func New() *Index {
	return &Index{
		transactionsByAgent:   make(map[string][]string),
		sessionsByParticipant: make(map[string][]string),
	}
}

// TransactionsByAgent returns, in the order they were recorded, the ids of
// every validated transaction submitted by agentName.
func (idx *Index) TransactionsByAgent(agentName string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]string(nil), idx.transactionsByAgent[agentName]...)
}

// SessionsByParticipant returns, in the order they were recorded, the ids
// of every coordination session agentID took part in.
func (idx *Index) SessionsByParticipant(agentID string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]string(nil), idx.sessionsByParticipant[agentID]...)
}

// recordTransaction appends txID to agentName's list, skipping a duplicate
// at the tail (the ledger never revalidates the same id twice, but this
// keeps the index idempotent under a replayed event).
func (idx *Index) recordTransaction(agentName, txID string) {
	if agentName == "" || txID == "" {
		return
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	list := idx.transactionsByAgent[agentName]
	if len(list) > 0 && list[len(list)-1] == txID {
		return
	}
	idx.transactionsByAgent[agentName] = append(list, txID)
}

// recordSession appends sessionID to every participant's list.
func (idx *Index) recordSession(sessionID string, participants []string) {
	if sessionID == "" {
		return
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, p := range participants {
		if p == "" {
			continue
		}
		list := idx.sessionsByParticipant[p]
		if len(list) > 0 && list[len(list)-1] == sessionID {
			continue
		}
		idx.sessionsByParticipant[p] = append(list, sessionID)
	}
}
