// Package ledger implements the append-only, in-memory block ledger (C3):
// genesis bootstrap, a pending-transaction pool, a simulated consensus
// delay, and chain-integrity verification. Writes are serialized on a
// single lock; reads observe either a fully-appended block or none of it.
package ledger

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deosha/hospital-coordicore/events"
	"github.com/deosha/hospital-coordicore/ledger/policy"
	"github.com/deosha/hospital-coordicore/metrics"
)

// Config parameterizes a Ledger. NewLedger replaces a non-positive
// BatchSize, a negative Difficulty, consensus delay bounds that are both
// non-positive, and a nil Validator, Clock or Logger with DefaultConfig's
// values. A Difficulty of 0 is kept (mining accepts the first attempt).
// Metrics and Emitter are left nil when unset: nothing gets recorded or
// emitted — every Collectors method is nil-safe.
type Config struct {
	BatchSize         int
	Difficulty        int
	ConsensusDelayMin time.Duration
	ConsensusDelayMax time.Duration
	Validator         *policy.Validator
	Clock             func() time.Time
	Logger            *zap.Logger
	Metrics           *metrics.Collectors
	Emitter           *events.Emitter
}

// DefaultConfig returns the reference Ledger configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:         10,
		Difficulty:        2,
		ConsensusDelayMin: 100 * time.Millisecond,
		ConsensusDelayMax: 250 * time.Millisecond,
		Validator:         policy.NewValidator(policy.DefaultConfig()),
		Clock:             time.Now,
		Logger:            zap.NewNop(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.Difficulty < 0 {
		c.Difficulty = d.Difficulty
	}
	if c.ConsensusDelayMin <= 0 && c.ConsensusDelayMax <= 0 {
		c.ConsensusDelayMin, c.ConsensusDelayMax = d.ConsensusDelayMin, d.ConsensusDelayMax
	}
	if c.Validator == nil {
		c.Validator = d.Validator
	}
	if c.Clock == nil {
		c.Clock = d.Clock
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	return c
}

// Stats summarizes the ledger's current state).
type Stats struct {
	TotalBlocks       int  `json:"total_blocks"`
	TotalTransactions int  `json:"total_transactions"`
	Pending           int  `json:"pending"`
	ChainValid        bool `json:"chain_valid"`
}

// ChainReport is the result of Validate.
type ChainReport struct {
	Valid      bool     `json:"valid"`
	Errors     []string `json:"errors"`
	BlockCount int      `json:"block_count"`
}

// Ledger is the append-only block store. The zero value is not usable;
// construct with NewLedger.
type Ledger struct {
	cfg Config
	rnd *rand.Rand

	mu sync.RWMutex

	blocks       []*Block
	pending      []*Transaction
	pendingByID  map[string]*Transaction
	committedIDs map[string]struct{}
	rejections   []*Transaction
}

// NewLedger returns a Ledger with a genesis block already committed.
func NewLedger(cfg Config) (*Ledger, error) {
	cfg = cfg.withDefaults()

	l := &Ledger{
		cfg:          cfg,
		rnd:          rand.New(rand.NewSource(cfg.Clock().UnixNano())),
		pendingByID:  make(map[string]*Transaction),
		committedIDs: make(map[string]struct{}),
	}
	if err := l.bootstrap(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) bootstrap() error {
	genesis, err := newGenesisBlock(l.cfg.Clock(), l.cfg.Difficulty)
	if err != nil {
		return err
	}
	l.blocks = []*Block{genesis}
	l.cfg.Metrics.IncBlocksMined()
	return nil
}

// Submit runs the smart-contract validator against tx and, if it passes,
// appends tx to the pending pool. Rejected transactions are recorded in the
// rejection log and never reach a block. Duplicate transaction_id (whether
// pending or already committed) is rejected before validation runs, with
// CodeDuplicateTx.
func (l *Ledger) Submit(tx *Transaction) (*policy.ValidationReport, error) {
	if tx.TransactionID == "" {
		return nil, newError(CodeInvalid, "transaction_id is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.cfg.Metrics.IncTxSubmitted()

	if _, exists := l.pendingByID[tx.TransactionID]; exists {
		return nil, newError(CodeDuplicateTx, "transaction_id "+tx.TransactionID+" already pending")
	}
	if _, exists := l.committedIDs[tx.TransactionID]; exists {
		return nil, newError(CodeDuplicateTx, "transaction_id "+tx.TransactionID+" already committed")
	}

	report := l.cfg.Validator.Validate(tx.Details)
	tx.ValidationReport = &report

	if !report.Valid {
		tx.ValidationStatus = StatusRejected
		l.rejections = append(l.rejections, tx)
		l.cfg.Metrics.IncTxRejected()
		l.cfg.Logger.Info("transaction rejected",
			zap.String("transaction_id", tx.TransactionID),
			zap.String("reason", report.OverallReason))
		l.emit(events.EventTxRejected, tx.TransactionID, map[string]any{
			"agent_name": tx.AgentName,
			"reason":     report.OverallReason,
		})
		return &report, nil
	}

	tx.ValidationStatus = StatusValidated
	l.pending = append(l.pending, tx)
	l.pendingByID[tx.TransactionID] = tx
	l.cfg.Metrics.IncTxValidated()
	l.cfg.Metrics.SetPending(len(l.pending))
	l.emit(events.EventTxValidated, tx.TransactionID, map[string]any{"agent_name": tx.AgentName})
	return &report, nil
}

// emit forwards ev to the configured Emitter, if any. A nil Emitter (the
// default) makes this a no-op, following a "subscribe before Emit"
// convention without requiring every caller to nil-check.
func (l *Ledger) emit(typ events.EventType, txID string, data map[string]any) {
	if l.cfg.Emitter == nil {
		return
	}
	l.cfg.Emitter.Emit(events.Event{Type: typ, TxID: txID, Data: data})
}

// DryRunValidate runs the smart-contract validator against details without
// touching the pending pool or rejection log. Used by the coordination
// engine's VALIDATE step, which must gate on policy before committing to
// anything.
func (l *Ledger) DryRunValidate(details map[string]any) policy.ValidationReport {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg.Validator.Validate(details)
}

// consensusDelay blocks for a uniform-random duration within the configured
// bounds, simulating PBFT-like commit ordering.
func (l *Ledger) consensusDelay() {
	lo, hi := l.cfg.ConsensusDelayMin, l.cfg.ConsensusDelayMax
	if hi <= lo {
		time.Sleep(lo)
		return
	}
	span := hi - lo
	d := lo + time.Duration(l.rnd.Float64()*float64(span))
	time.Sleep(d)
}

// Commit drains up to BatchSize pending transactions into a newly mined
// block. Returns nil if the pending pool is empty. Atomic: either the block
// is appended and its transactions removed from pending, or nothing changes.
func (l *Ledger) Commit() (*Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.commitLocked(l.cfg.BatchSize)
}

// CommitAuto forces an immediate single-transaction commit, used by the
// ledger binding after each successful coordination for demo visibility.
func (l *Ledger) CommitAuto() (*Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.commitLocked(1)
}

func (l *Ledger) commitLocked(n int) (*Block, error) {
	if len(l.pending) == 0 {
		return nil, nil
	}
	if n > len(l.pending) {
		n = len(l.pending)
	}
	batch := l.pending[:n]

	l.consensusDelay()

	tip := l.blocks[len(l.blocks)-1]
	block, err := newBlock(tip.Index+1, l.cfg.Clock(), tip.Hash, batch, l.cfg.Difficulty)
	if err != nil {
		return nil, err
	}

	l.blocks = append(l.blocks, block)
	for _, tx := range batch {
		delete(l.pendingByID, tx.TransactionID)
		l.committedIDs[tx.TransactionID] = struct{}{}
	}
	l.pending = l.pending[n:]

	l.cfg.Metrics.IncBlocksMined()
	l.cfg.Metrics.SetPending(len(l.pending))
	l.cfg.Logger.Info("block committed",
		zap.Int64("index", block.Index),
		zap.Int("transactions", len(batch)),
		zap.String("hash", block.Hash))
	l.emit(events.EventBlockCommitted, "", map[string]any{
		"index":        block.Index,
		"hash":         block.Hash,
		"transactions": len(batch),
	})
	return block, nil
}

// Validate walks the chain and reports any structural violation: bad hash,
// broken previous_hash link, difficulty not met, or a mutated genesis. It
// never mutates the chain and runs concurrently with other readers; it
// does not run concurrently with a writer, but waits for an in-progress
// Submit, Commit or Reset (including its consensus delay) to finish.
func (l *Ledger) Validate() ChainReport {
	l.mu.RLock()
	defer l.mu.RUnlock()

	report := ChainReport{Valid: true, BlockCount: len(l.blocks)}

	for i, b := range l.blocks {
		if err := b.VerifyIntegrity(l.cfg.Difficulty); err != nil {
			report.Valid = false
			report.Errors = append(report.Errors, err.Error())
		}
		if i == 0 {
			if b.Index != 0 || b.PreviousHash != "" || b.Payload.Genesis == nil || b.Payload.Genesis.Tag != GenesisTag {
				report.Valid = false
				report.Errors = append(report.Errors, "genesis block was mutated")
			}
			continue
		}
		prev := l.blocks[i-1]
		if b.PreviousHash != prev.Hash {
			report.Valid = false
			report.Errors = append(report.Errors, "block at index "+strconv.FormatInt(b.Index, 10)+" does not link to its predecessor")
		}
		if b.Index != prev.Index+1 {
			report.Valid = false
			report.Errors = append(report.Errors, "block at index "+strconv.FormatInt(b.Index, 10)+" is out of sequence")
		}
	}
	l.cfg.Metrics.SetChainValid(report.Valid)
	return report
}

// GetBlock returns the block at index, or ErrNotFound if out of range.
func (l *Ledger) GetBlock(index int64) (*Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= int64(len(l.blocks)) {
		return nil, ErrNotFound
	}
	return l.blocks[index], nil
}

// GetBlocks returns up to limit blocks starting at offset, in index order.
// An out-of-range offset returns an empty slice, never an error.
func (l *Ledger) GetBlocks(offset, limit int) ([]*Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if offset < 0 || limit < 0 {
		return nil, newError(CodeInvalid, "offset and limit must be non-negative")
	}
	if offset >= len(l.blocks) {
		return []*Block{}, nil
	}
	end := offset + limit
	if limit == 0 || end > len(l.blocks) {
		end = len(l.blocks)
	}
	out := make([]*Block, end-offset)
	copy(out, l.blocks[offset:end])
	return out, nil
}

// FindTransaction searches the pending pool, then committed blocks, then
// the rejection log, for a transaction with the given id.
func (l *Ledger) FindTransaction(id string) (*Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if tx, ok := l.pendingByID[id]; ok {
		return tx, nil
	}
	for _, b := range l.blocks {
		for _, tx := range b.Payload.Transactions {
			if tx.TransactionID == id {
				return tx, nil
			}
		}
	}
	for _, tx := range l.rejections {
		if tx.TransactionID == id {
			return tx, nil
		}
	}
	return nil, ErrNotFound
}

// Rejections returns up to limit rejected transactions starting at offset,
// in the order they were rejected. Supplements the reference interface with
// visibility into why transactions never made it into a block.
func (l *Ledger) Rejections(offset, limit int) ([]*Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if offset < 0 || limit < 0 {
		return nil, newError(CodeInvalid, "offset and limit must be non-negative")
	}
	if offset >= len(l.rejections) {
		return []*Transaction{}, nil
	}
	end := offset + limit
	if limit == 0 || end > len(l.rejections) {
		end = len(l.rejections)
	}
	out := make([]*Transaction, end-offset)
	copy(out, l.rejections[offset:end])
	return out, nil
}

// Stats reports current ledger counters.
func (l *Ledger) Stats() Stats {
	l.mu.RLock()
	txCount := 0
	for _, b := range l.blocks {
		txCount += len(b.Payload.Transactions)
	}
	stats := Stats{
		TotalBlocks:       len(l.blocks),
		TotalTransactions: txCount,
		Pending:           len(l.pending),
	}
	l.mu.RUnlock()

	stats.ChainValid = l.Validate().Valid
	return stats
}

// Reset wipes all state and re-creates the genesis block. Demo-only: the
// caller is responsible for ensuring no engine task is mid-session —
// Reset does not itself detect or refuse a concurrent session.
func (l *Ledger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.blocks = nil
	l.pending = nil
	l.pendingByID = make(map[string]*Transaction)
	l.committedIDs = make(map[string]struct{})
	l.rejections = nil
	return l.bootstrap()
}
