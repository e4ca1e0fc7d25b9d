// Package coordination implements the eight-step negotiation protocol (C6)
// that drives a session from intent broadcast through execution, and the
// binding (C7) that turns an accepted agreement into a ledger transaction.
package coordination

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deosha/hospital-coordicore/agents"
	"github.com/deosha/hospital-coordicore/events"
	"github.com/deosha/hospital-coordicore/ledger"
	"github.com/deosha/hospital-coordicore/ledger/policy"
	"github.com/deosha/hospital-coordicore/metrics"
)

// Config parameterizes an Engine.
type Config struct {
	Timeout   time.Duration
	MaxRounds int
	Clock     func() time.Time
	Logger    *zap.Logger
	Metrics   *metrics.Collectors
	Emitter   *events.Emitter
}

// DefaultConfig returns the reference engine configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		MaxRounds: 3,
		Clock:     time.Now,
		Logger:    zap.NewNop(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = d.MaxRounds
	}
	if c.Clock == nil {
		c.Clock = d.Clock
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	return c
}

// ScenarioSpec is the caller's input to Coordinate.
type ScenarioSpec struct {
	Initiator    string
	Participants []string
	Intent       string
	Context      agents.Context
}

// CoordinationResult is what Coordinate returns: the final, terminal-state
// session.
type CoordinationResult struct {
	Session CoordinationSession
}

// Engine drives sessions through the state machine. A single Engine is
// shared process-wide; each session it runs is owned exclusively by the
// Coordinate call that created it from start to terminal state.
type Engine struct {
	cfg      Config
	registry *agents.Registry
	ledger   *ledger.Ledger

	mu       sync.RWMutex
	sessions map[string]*CoordinationSession
}

// New creates an Engine over registry and ledger.
func New(cfg Config, registry *agents.Registry, led *ledger.Ledger) *Engine {
	return &Engine{
		cfg:      cfg.withDefaults(),
		registry: registry,
		ledger:   led,
		sessions: make(map[string]*CoordinationSession),
	}
}

// GetSession returns a snapshot of the session with the given id.
func (e *Engine) GetSession(id string) (CoordinationSession, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[id]
	if !ok {
		return CoordinationSession{}, ErrNotFound
	}
	return s.Snapshot(), nil
}

// ListSessions returns a snapshot of every session, in creation order.
func (e *Engine) ListSessions() []CoordinationSession {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]CoordinationSession, 0, len(e.sessions))
	for _, s := range e.sessions {
		out = append(out, s.Snapshot())
	}
	// Session ids are "session-N" with N issued monotonically, so a shorter
	// id was created earlier, and equal-length ids compare lexically.
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].SessionID, out[j].SessionID
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return out
}

// GetMessages returns the message log of the given session.
func (e *Engine) GetMessages(sessionID string) ([]Message, error) {
	s, err := e.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.Messages, nil
}

// Coordinate synchronously drives spec through the eight-step protocol and
// returns the final, terminal session.
func (e *Engine) Coordinate(ctx context.Context, spec ScenarioSpec) (CoordinationResult, error) {
	now := e.cfg.Clock()
	session := &CoordinationSession{
		SessionID:    nextSessionID(),
		State:        StateInitiated,
		Initiator:    spec.Initiator,
		Participants: append([]string(nil), spec.Participants...),
		Intent:       spec.Intent,
		Context:      cloneContext(spec.Context),
		Constraints:  make(map[string]agents.ConstraintRecord),
		StartedAt:    now,
	}
	deadline := now.Add(e.cfg.Timeout)

	e.mu.Lock()
	e.sessions[session.SessionID] = session
	e.mu.Unlock()

	e.cfg.Metrics.IncSessionStarted()
	e.emit(events.EventSessionStarted, session.SessionID, map[string]any{
		"initiator":    session.Initiator,
		"participants": session.Participants,
	})
	e.run(ctx, session, deadline)
	e.cfg.Metrics.ObserveRounds(len(session.Rounds))

	return CoordinationResult{Session: session.Snapshot()}, nil
}

// run executes steps 1-8 in place on session, terminating it exactly once.
func (e *Engine) run(ctx context.Context, session *CoordinationSession, deadline time.Time) {
	if err := e.initiate(session); err != nil {
		e.fail(session, err)
		return
	}
	if e.deadlinePassed(session, deadline) {
		return
	}

	e.broadcast(session)
	if e.deadlinePassed(session, deadline) {
		return
	}

	if err := e.collectConstraints(ctx, session, deadline); err != nil {
		e.fail(session, err)
		return
	}
	if e.deadlinePassed(session, deadline) {
		return
	}

	proposal, err := e.generateProposal(ctx, session, deadline)
	if err != nil {
		e.fail(session, err)
		return
	}
	if e.deadlinePassed(session, deadline) {
		return
	}

	accepted, final, err := e.negotiate(ctx, session, deadline, proposal)
	if err != nil {
		e.fail(session, err)
		return
	}
	if e.deadlinePassed(session, deadline) {
		return
	}
	if !accepted {
		e.fail(session, newError(CodeNoAgreement, "no agreement reached within max_rounds"))
		return
	}
	session.FinalProposal = &final
	session.Agreement = true

	report, err := e.validate(session, final)
	if err != nil {
		e.fail(session, err)
		return
	}
	if !report.Valid {
		e.fail(session, newError(CodePolicyViolation, report.OverallReason))
		return
	}
	if e.deadlinePassed(session, deadline) {
		return
	}

	if err := e.execute(session, final); err != nil {
		e.fail(session, wrapError(CodeLedgerRejected, "ledger commit failed", err))
		return
	}

	e.complete(session, StateCompleted)
}

// step 1: INITIATE
func (e *Engine) initiate(session *CoordinationSession) error {
	if len(session.Participants) == 0 {
		return newError(CodeInvalidScenario, "participants must not be empty")
	}
	isParticipant := false
	for _, p := range session.Participants {
		if _, err := e.registry.Get(p); err != nil {
			return wrapError(CodeUnknownAgent, "participant "+p+" is not registered", err)
		}
		if p == session.Initiator {
			isParticipant = true
		}
	}
	if !isParticipant {
		return newError(CodeInvalidScenario, "initiator must be a participant")
	}

	session.appendMessage(nextMessageID, e.cfg.Clock(), session.Initiator, session.otherParticipants(session.Initiator), KindIntent, map[string]any{
		"intent": session.Intent,
	})
	return nil
}

// step 2: BROADCAST
func (e *Engine) broadcast(session *CoordinationSession) {
	session.appendMessage(nextMessageID, e.cfg.Clock(), "engine", append([]string(nil), session.Participants...), KindInform, map[string]any{
		"announcement": "negotiation started",
		"context":      session.Context,
	})
}

// registryOrderedParticipants returns every session participant other than
// id, ordered by the registry's registration order rather than the
// caller-supplied ScenarioSpec.Participants order, so constraint and
// critique fan-out is deterministic regardless of how a caller lists
// participants.
func (e *Engine) registryOrderedParticipants(session *CoordinationSession, id string) []string {
	want := make(map[string]bool, len(session.Participants))
	for _, p := range session.Participants {
		want[p] = true
	}
	out := make([]string, 0, len(session.Participants))
	for _, a := range e.registry.List() {
		aid := a.Id()
		if aid == id || !want[aid] {
			continue
		}
		out = append(out, aid)
	}
	return out
}

// step 3: COLLECT CONSTRAINTS
func (e *Engine) collectConstraints(ctx context.Context, session *CoordinationSession, deadline time.Time) error {
	session.State = StateCollectingConstraints

	participants := e.registryOrderedParticipants(session, session.Initiator)
	type result struct {
		agentID string
		record  agents.ConstraintRecord
		err     error
	}
	results := make([]result, len(participants))

	callCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var wg sync.WaitGroup
	for i, agentID := range participants {
		session.appendMessage(nextMessageID, e.cfg.Clock(), "engine", []string{agentID}, KindQuery, map[string]any{
			"field": "constraint",
		})

		wg.Add(1)
		go func(i int, agentID string) {
			defer wg.Done()
			a, err := e.registry.Get(agentID)
			if err != nil {
				results[i] = result{agentID: agentID, err: err}
				return
			}
			halfDeadline := e.cfg.Clock().Add(deadline.Sub(e.cfg.Clock()) / 2)
			subCtx, subCancel := context.WithDeadline(callCtx, halfDeadline)
			defer subCancel()
			record, err := a.ProposeConstraint(subCtx, session.Context)
			results[i] = result{agentID: agentID, record: record, err: err}
		}(i, agentID)
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			e.cfg.Logger.Info("constraint collection treated as empty",
				zap.String("agent_id", r.agentID), zap.Error(r.err))
			session.appendMessage(nextMessageID, e.cfg.Clock(), r.agentID, []string{session.Initiator}, KindConstraint, map[string]any{
				"available": false,
			})
			continue
		}
		session.Constraints[r.agentID] = r.record
		session.appendMessage(nextMessageID, e.cfg.Clock(), r.agentID, []string{session.Initiator}, KindConstraint, map[string]any{
			"available": true,
			"limits":    r.record.Limits,
		})
	}
	return nil
}

// step 4: GENERATE PROPOSAL
func (e *Engine) generateProposal(ctx context.Context, session *CoordinationSession, deadline time.Time) (agents.Proposal, error) {
	session.State = StateGeneratingProposal

	initiator, err := e.registry.Get(session.Initiator)
	if err != nil {
		return agents.Proposal{}, wrapError(CodeAgentUnavailable, "initiator not registered", err)
	}

	callCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	proposal, err := initiator.GenerateProposal(callCtx, session.Context, session.Constraints)
	if err != nil {
		return agents.Proposal{}, wrapError(CodeAgentUnavailable, "initiator failed to produce a proposal", err)
	}

	session.appendMessage(nextMessageID, e.cfg.Clock(), session.Initiator, session.otherParticipants(session.Initiator), KindProposal, map[string]any{
		"item_name":         proposal.ItemName,
		"proposed_quantity": proposal.ProposedQuantity,
		"proposed_cost":     proposal.ProposedCost,
	})
	return proposal, nil
}

// steps 5-6: EVALUATE / REFINE, looping until acceptance or max_rounds.
func (e *Engine) negotiate(ctx context.Context, session *CoordinationSession, deadline time.Time, proposal agents.Proposal) (accepted bool, final agents.Proposal, err error) {
	session.State = StateNegotiating
	current := proposal

	initiator, regErr := e.registry.Get(session.Initiator)
	if regErr != nil {
		return false, agents.Proposal{}, wrapError(CodeAgentUnavailable, "initiator not registered", regErr)
	}

	participants := e.registryOrderedParticipants(session, session.Initiator)

	for round := 1; round <= e.cfg.MaxRounds; round++ {
		if e.pastDeadline(deadline) {
			return false, agents.Proposal{}, nil
		}
		start := time.Now()

		type result struct {
			agentID  string
			decision agents.CritiqueDecision
			err      error
		}
		results := make([]result, len(participants))

		callCtx, cancel := context.WithDeadline(ctx, deadline)
		var wg sync.WaitGroup
		for i, agentID := range participants {
			wg.Add(1)
			go func(i int, agentID string) {
				defer wg.Done()
				a, err := e.registry.Get(agentID)
				if err != nil {
					results[i] = result{agentID: agentID, err: err}
					return
				}
				decision, err := a.Critique(callCtx, current, session.Context)
				results[i] = result{agentID: agentID, decision: decision, err: err}
			}(i, agentID)
		}
		wg.Wait()
		cancel()

		critiques := make([]agents.CritiqueDecision, 0, len(participants))
		for _, r := range results {
			if r.err != nil {
				e.cfg.Logger.Info("critique treated as rejection",
					zap.String("agent_id", r.agentID), zap.Error(r.err))
				d := agents.CritiqueDecision{AgentID: r.agentID, Verdict: agents.VerdictCritique, Reasoning: "agent unavailable"}
				critiques = append(critiques, d)
				session.appendMessage(nextMessageID, e.cfg.Clock(), r.agentID, []string{session.Initiator}, KindCritique, map[string]any{"reasoning": d.Reasoning})
				continue
			}
			critiques = append(critiques, r.decision)
			kind := KindCritique
			if r.decision.Verdict == agents.VerdictAccept {
				kind = KindAccept
			}
			session.appendMessage(nextMessageID, e.cfg.Clock(), r.agentID, []string{session.Initiator}, kind, map[string]any{
				"verdict":   string(r.decision.Verdict),
				"reasoning": r.decision.Reasoning,
			})
		}

		nr := NegotiationRound{RoundNumber: round, Proposal: current, Critiques: critiques, Duration: time.Since(start)}
		session.Rounds = append(session.Rounds, nr)

		if nr.allAccepted() {
			return true, current, nil
		}
		if round == e.cfg.MaxRounds {
			break
		}
		if e.pastDeadline(deadline) {
			return false, agents.Proposal{}, nil
		}

		feedbackCtx := cloneContext(session.Context)
		feedbackCtx[agents.FeedbackKey] = critiques

		callCtx2, cancel2 := context.WithDeadline(ctx, deadline)
		refined, err := initiator.GenerateProposal(callCtx2, feedbackCtx, session.Constraints)
		cancel2()
		if err != nil {
			return false, agents.Proposal{}, wrapError(CodeAgentUnavailable, "initiator failed to refine proposal", err)
		}
		current = refined
		session.appendMessage(nextMessageID, e.cfg.Clock(), session.Initiator, session.otherParticipants(session.Initiator), KindProposal, map[string]any{
			"item_name":         refined.ItemName,
			"proposed_quantity": refined.ProposedQuantity,
			"proposed_cost":     refined.ProposedCost,
			"round":             round + 1,
		})
	}
	return false, agents.Proposal{}, nil
}

// step 7 (dry-run half): VALIDATE
func (e *Engine) validate(session *CoordinationSession, final agents.Proposal) (policy.ValidationReport, error) {
	session.State = StateValidating
	tx := buildTransaction(session, final, e.cfg.Clock())
	return e.ledger.DryRunValidate(tx.Details), nil
}

// step 8: EXECUTE
func (e *Engine) execute(session *CoordinationSession, final agents.Proposal) error {
	session.State = StateExecuting
	tx := buildTransaction(session, final, e.cfg.Clock())

	if _, err := e.ledger.Submit(tx); err != nil {
		return err
	}
	block, err := e.ledger.CommitAuto()
	if err != nil {
		return err
	}
	if block == nil {
		return newError(CodeLedgerRejected, "commit produced no block")
	}

	session.LedgerReceipt = &LedgerReceipt{
		BlockIndex:    block.Index,
		BlockHash:     block.Hash,
		TransactionID: tx.TransactionID,
	}
	session.appendMessage(nextMessageID, e.cfg.Clock(), "engine", append([]string(nil), session.Participants...), KindInform, map[string]any{
		"announcement": "execution complete",
		"block_index":  block.Index,
	})
	return nil
}

func (e *Engine) fail(session *CoordinationSession, err error) {
	var coded *CodedError
	reason := err.Error()
	if ce, ok := err.(*CodedError); ok {
		coded = ce
		reason = string(coded.Code) + ": " + coded.Message
		if coded.Message == "" {
			reason = string(coded.Code)
		}
	}
	session.FailureReason = reason
	e.complete(session, StateFailed)
}

func (e *Engine) complete(session *CoordinationSession, state State) {
	session.State = state
	session.EndedAt = e.cfg.Clock()
	if state == StateCompleted {
		e.cfg.Metrics.IncSessionCompleted()
		e.emit(events.EventSessionComplete, session.SessionID, map[string]any{
			"participants": session.Participants,
		})
	} else {
		e.cfg.Metrics.IncSessionFailed(string(state))
		e.emit(events.EventSessionFailed, session.SessionID, map[string]any{
			"state":          string(state),
			"failure_reason": session.FailureReason,
			"participants":   session.Participants,
		})
	}
}

// emit forwards ev to the configured Emitter, if any.
func (e *Engine) emit(typ events.EventType, sessionID string, data map[string]any) {
	if e.cfg.Emitter == nil {
		return
	}
	e.cfg.Emitter.Emit(events.Event{Type: typ, SessionID: sessionID, Data: data})
}

func (e *Engine) deadlinePassed(session *CoordinationSession, deadline time.Time) bool {
	if !e.pastDeadline(deadline) {
		return false
	}
	session.EndedAt = e.cfg.Clock()
	session.State = StateTimeout
	session.FailureReason = string(CodeDeadlineExceeded) + ": session deadline exceeded"
	e.cfg.Metrics.IncSessionFailed(string(StateTimeout))
	e.emit(events.EventSessionFailed, session.SessionID, map[string]any{
		"state":          string(StateTimeout),
		"failure_reason": session.FailureReason,
		"participants":   session.Participants,
	})
	return true
}

func (e *Engine) pastDeadline(deadline time.Time) bool {
	return e.cfg.Clock().After(deadline)
}

func cloneContext(c agents.Context) agents.Context {
	out := make(agents.Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
