package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/deosha/hospital-coordicore/agents"
	"github.com/deosha/hospital-coordicore/coordination"
	"github.com/deosha/hospital-coordicore/ledger"
)

// Handler holds every dependency needed to serve a method call.
type Handler struct {
	engine *coordination.Engine
	ledger *ledger.Ledger
}

// NewHandler creates a Handler over engine and led.
func NewHandler(engine *coordination.Engine, led *ledger.Ledger) *Handler {
	return &Handler{engine: engine, ledger: led}
}

// Dispatch routes req to the matching method and returns a Response. It
// never panics: an unknown method or a malformed params payload returns an
// error Response rather than propagating a Go error to the caller.
func (h *Handler) Dispatch(ctx context.Context, req Request) Response {
	switch req.Method {
	case "coordinate":
		return h.coordinate(ctx, req)
	case "getSession":
		return h.getSession(req)
	case "listSessions":
		return okResponse(req.ID, h.engine.ListSessions())
	case "getMessages":
		return h.getMessages(req)
	case "getBlock":
		return h.getBlock(req)
	case "getBlocks":
		return h.getBlocks(req)
	case "findTransaction":
		return h.findTransaction(req)
	case "getRejections":
		return h.getRejections(req)
	case "getStats":
		return okResponse(req.ID, h.ledger.Stats())
	case "validateChain":
		return okResponse(req.ID, h.ledger.Validate())
	default:
		return errResponse(req.ID, CodeMethodNotFound, "method not found: "+req.Method)
	}
}

func (h *Handler) coordinate(ctx context.Context, req Request) Response {
	var params struct {
		Initiator    string         `json:"initiator"`
		Participants []string       `json:"participants"`
		Intent       string         `json:"intent"`
		Context      agents.Context `json:"context"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	result, err := h.engine.Coordinate(ctx, coordination.ScenarioSpec{
		Initiator:    params.Initiator,
		Participants: params.Participants,
		Intent:       params.Intent,
		Context:      params.Context,
	})
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, result.Session)
}

func (h *Handler) getSession(req Request) Response {
	var params struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	session, err := h.engine.GetSession(params.SessionID)
	if err != nil {
		return errResponse(req.ID, codeOf(err), err.Error())
	}
	return okResponse(req.ID, session)
}

func (h *Handler) getMessages(req Request) Response {
	var params struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	messages, err := h.engine.GetMessages(params.SessionID)
	if err != nil {
		return errResponse(req.ID, codeOf(err), err.Error())
	}
	return okResponse(req.ID, messages)
}

func (h *Handler) getBlock(req Request) Response {
	var params struct {
		Index int64 `json:"index"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	block, err := h.ledger.GetBlock(params.Index)
	if err != nil {
		return errResponse(req.ID, codeOf(err), err.Error())
	}
	return okResponse(req.ID, block)
}

func (h *Handler) getBlocks(req Request) Response {
	var params struct {
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(req.ID, CodeInvalidParams, err.Error())
		}
	}
	blocks, err := h.ledger.GetBlocks(params.Offset, params.Limit)
	if err != nil {
		return errResponse(req.ID, codeOf(err), err.Error())
	}
	return okResponse(req.ID, blocks)
}

func (h *Handler) findTransaction(req Request) Response {
	var params struct {
		TransactionID string `json:"transaction_id"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	tx, err := h.ledger.FindTransaction(params.TransactionID)
	if err != nil {
		return errResponse(req.ID, codeOf(err), err.Error())
	}
	return okResponse(req.ID, tx)
}

func (h *Handler) getRejections(req Request) Response {
	var params struct {
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(req.ID, CodeInvalidParams, err.Error())
		}
	}
	rejections, err := h.ledger.Rejections(params.Offset, params.Limit)
	if err != nil {
		return errResponse(req.ID, codeOf(err), err.Error())
	}
	return okResponse(req.ID, rejections)
}

// codeOf extracts a taxonomy code from a ledger or coordination CodedError,
// falling back to a generic internal error code for anything else.
func codeOf(err error) string {
	var ledgerErr *ledger.CodedError
	if errors.As(err, &ledgerErr) {
		return string(ledgerErr.Code)
	}
	var coordErr *coordination.CodedError
	if errors.As(err, &coordErr) {
		return string(coordErr.Code)
	}
	return CodeInternalError
}
