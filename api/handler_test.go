package api_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deosha/hospital-coordicore/agents"
	"github.com/deosha/hospital-coordicore/api"
	"github.com/deosha/hospital-coordicore/coordination"
	"github.com/deosha/hospital-coordicore/internal/testutil"
	"github.com/deosha/hospital-coordicore/ledger"
)

func newTestHandler(t *testing.T) (*api.Handler, *ledger.Ledger) {
	t.Helper()
	reg := agents.NewRegistry()
	reg.Register(testutil.NewSourcingAgent("SC"))
	reg.Register(testutil.NewBudgetAgent("FIN", "budget_remaining"))
	reg.Register(testutil.NewStorageAgent("FAC", "storage_available"))

	cfg := ledger.DefaultConfig()
	cfg.Difficulty = 0
	cfg.ConsensusDelayMin = time.Millisecond
	cfg.ConsensusDelayMax = 2 * time.Millisecond
	led, err := ledger.NewLedger(cfg)
	require.NoError(t, err)

	engine := coordination.New(coordination.DefaultConfig(), reg, led)
	return api.NewHandler(engine, led), led
}

func TestDispatchCoordinateRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t)

	params, err := json.Marshal(map[string]any{
		"initiator":    "SC",
		"participants": []string{"SC", "FIN", "FAC"},
		"intent":       "restock N95 masks",
		"context": map[string]any{
			"item_name":         "N95 masks",
			"required_quantity": 1000,
			"price_per_unit":    2.0,
			"budget_remaining":  2000,
			"storage_available": 800,
		},
	})
	require.NoError(t, err)

	resp := h.Dispatch(context.Background(), api.Request{ID: 1, Method: "coordinate", Params: params})
	require.Nil(t, resp.Error)
	session, ok := resp.Result.(coordination.CoordinationSession)
	require.True(t, ok)
	require.Equal(t, coordination.StateCompleted, session.State)
}

func TestDispatchUnknownMethod(t *testing.T) {
	h, _ := newTestHandler(t)
	resp := h.Dispatch(context.Background(), api.Request{ID: 1, Method: "nope"})
	require.NotNil(t, resp.Error)
	require.Equal(t, api.CodeMethodNotFound, resp.Error.Code)
}

func TestDispatchGetSessionNotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	params, _ := json.Marshal(map[string]any{"session_id": "does-not-exist"})
	resp := h.Dispatch(context.Background(), api.Request{ID: 1, Method: "getSession", Params: params})
	require.NotNil(t, resp.Error)
	require.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestDispatchGetStats(t *testing.T) {
	h, _ := newTestHandler(t)
	resp := h.Dispatch(context.Background(), api.Request{ID: 1, Method: "getStats"})
	require.Nil(t, resp.Error)
	stats, ok := resp.Result.(ledger.Stats)
	require.True(t, ok)
	require.Equal(t, 1, stats.TotalBlocks)
}

func TestDispatchGetBlockOutOfRange(t *testing.T) {
	h, _ := newTestHandler(t)
	params, _ := json.Marshal(map[string]any{"index": 99})
	resp := h.Dispatch(context.Background(), api.Request{ID: 1, Method: "getBlock", Params: params})
	require.NotNil(t, resp.Error)
	require.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestDispatchInvalidParams(t *testing.T) {
	h, _ := newTestHandler(t)
	resp := h.Dispatch(context.Background(), api.Request{ID: 1, Method: "getBlock", Params: json.RawMessage(`{`)})
	require.NotNil(t, resp.Error)
	require.Equal(t, api.CodeInvalidParams, resp.Error.Code)
}
