package ledger

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// GenesisTag is the well-known payload tag stamped on block 0.
const GenesisTag = "GENESIS"

// GenesisPayload is the payload carried by the genesis block.
type GenesisPayload struct {
	Tag string `json:"tag"`
}

// Payload is a block's body: either the genesis descriptor or an ordered
// list of transactions, never both.
type Payload struct {
	Genesis      *GenesisPayload `json:"genesis,omitempty"`
	Transactions []*Transaction  `json:"transactions,omitempty"`
}

// Block is an immutable, hash-chained record. Once committed it is never
// mutated; the only way to remove one is Ledger.Reset (demo-only).
type Block struct {
	Index        int64     `json:"index"`
	Timestamp    time.Time `json:"timestamp"`
	PreviousHash string    `json:"previous_hash"`
	Payload      Payload   `json:"payload"`
	Nonce        int64     `json:"nonce"`
	Hash         string    `json:"hash"`
}

// canonicalJSON encodes v with lexicographically sorted object keys.
// encoding/json sorts map keys on Marshal but writes struct fields in
// declaration order, so v is marshaled once, decoded into generic maps
// (numbers kept as json.Number, so their text is unchanged), and marshaled
// again, which sorts the keys of every object, struct-derived ones included.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// computeHash derives the block's hash from everything except Hash itself,
// using a canonical encoding: index, ISO-8601 timestamp, canonical JSON
// payload, previous_hash, nonce (decimal), SHA-256 hex.
func (b *Block) computeHash() (string, error) {
	payloadJSON, err := canonicalJSON(b.Payload)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	buf.WriteString(strconv.FormatInt(b.Index, 10))
	buf.WriteString(b.Timestamp.UTC().Format(time.RFC3339Nano))
	buf.Write(payloadJSON)
	buf.WriteString(b.PreviousHash)
	buf.WriteString(strconv.FormatInt(b.Nonce, 10))
	return hashHex(buf.Bytes()), nil
}

// meetsDifficulty reports whether hash has at least d leading hex zeros.
// d == 0 means "accept the first attempt" (difficulty disabled).
func meetsDifficulty(hash string, d int) bool {
	if d <= 0 {
		return true
	}
	if len(hash) < d {
		return false
	}
	return strings.Count(hash[:d], "0") == d
}

// mineBlock finds a nonce for b that satisfies the difficulty predicate,
// setting b.Nonce and b.Hash. Difficulty must stay small (the reference
// default is 2) since this runs synchronously on the commit path.
func mineBlock(b *Block, difficulty int) error {
	for nonce := int64(0); ; nonce++ {
		b.Nonce = nonce
		hash, err := b.computeHash()
		if err != nil {
			return err
		}
		if meetsDifficulty(hash, difficulty) {
			b.Hash = hash
			return nil
		}
	}
}

// VerifyIntegrity recomputes b's hash and reports whether it still matches
// the stored one and whether it meets difficulty — the structural half of
// the P1 chain-integrity invariant for a single block (link-to-predecessor
// is checked by the ledger, which has the predecessor in hand).
func (b *Block) VerifyIntegrity(difficulty int) error {
	computed, err := b.computeHash()
	if err != nil {
		return err
	}
	if computed != b.Hash {
		return newError(CodeInvalid, "block "+strconv.FormatInt(b.Index, 10)+": hash mismatch: stored "+b.Hash+" computed "+computed)
	}
	if !meetsDifficulty(b.Hash, difficulty) {
		return newError(CodeInvalid, "block "+strconv.FormatInt(b.Index, 10)+": hash does not satisfy difficulty")
	}
	return nil
}

// newGenesisBlock builds and mines the index-0 block.
func newGenesisBlock(now time.Time, difficulty int) (*Block, error) {
	b := &Block{
		Index:        0,
		Timestamp:    now,
		PreviousHash: "",
		Payload:      Payload{Genesis: &GenesisPayload{Tag: GenesisTag}},
	}
	if err := mineBlock(b, difficulty); err != nil {
		return nil, err
	}
	return b, nil
}

// newBlock builds and mines a block carrying txs on top of previousHash.
func newBlock(index int64, now time.Time, previousHash string, txs []*Transaction, difficulty int) (*Block, error) {
	b := &Block{
		Index:        index,
		Timestamp:    now,
		PreviousHash: previousHash,
		Payload:      Payload{Transactions: txs},
	}
	if err := mineBlock(b, difficulty); err != nil {
		return nil, err
	}
	return b, nil
}
