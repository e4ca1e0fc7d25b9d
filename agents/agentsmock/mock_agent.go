// Package agentsmock provides a go.uber.org/mock-style double for
// agents.ReasoningAgent, hand-written in the shape mockgen would produce so
// tests can set per-call expectations without a code-generation step.
package agentsmock

import (
	"context"
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/deosha/hospital-coordicore/agents"
)

// MockReasoningAgent is a mock of the agents.ReasoningAgent interface.
type MockReasoningAgent struct {
	ctrl     *gomock.Controller
	recorder *MockReasoningAgentMockRecorder
}

// MockReasoningAgentMockRecorder is the mock recorder for MockReasoningAgent.
type MockReasoningAgentMockRecorder struct {
	mock *MockReasoningAgent
}

// NewMockReasoningAgent creates a new mock instance.
func NewMockReasoningAgent(ctrl *gomock.Controller) *MockReasoningAgent {
	m := &MockReasoningAgent{ctrl: ctrl}
	m.recorder = &MockReasoningAgentMockRecorder{m}
	return m
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockReasoningAgent) EXPECT() *MockReasoningAgentMockRecorder {
	return m.recorder
}

// Id mocks base method.
func (m *MockReasoningAgent) Id() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Id")
	ret0, _ := ret[0].(string)
	return ret0
}

// Id indicates an expected call of Id.
func (mr *MockReasoningAgentMockRecorder) Id() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Id", reflect.TypeOf((*MockReasoningAgent)(nil).Id))
}

// Role mocks base method.
func (m *MockReasoningAgent) Role() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Role")
	ret0, _ := ret[0].(string)
	return ret0
}

// Role indicates an expected call of Role.
func (mr *MockReasoningAgentMockRecorder) Role() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Role", reflect.TypeOf((*MockReasoningAgent)(nil).Role))
}

// ProposeConstraint mocks base method.
func (m *MockReasoningAgent) ProposeConstraint(ctx context.Context, scenario agents.Context) (agents.ConstraintRecord, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ProposeConstraint", ctx, scenario)
	ret0, _ := ret[0].(agents.ConstraintRecord)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ProposeConstraint indicates an expected call of ProposeConstraint.
func (mr *MockReasoningAgentMockRecorder) ProposeConstraint(ctx, scenario any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ProposeConstraint", reflect.TypeOf((*MockReasoningAgent)(nil).ProposeConstraint), ctx, scenario)
}

// GenerateProposal mocks base method.
func (m *MockReasoningAgent) GenerateProposal(ctx context.Context, scenario agents.Context, constraintsByAgent map[string]agents.ConstraintRecord) (agents.Proposal, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GenerateProposal", ctx, scenario, constraintsByAgent)
	ret0, _ := ret[0].(agents.Proposal)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GenerateProposal indicates an expected call of GenerateProposal.
func (mr *MockReasoningAgentMockRecorder) GenerateProposal(ctx, scenario, constraintsByAgent any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GenerateProposal", reflect.TypeOf((*MockReasoningAgent)(nil).GenerateProposal), ctx, scenario, constraintsByAgent)
}

// Critique mocks base method.
func (m *MockReasoningAgent) Critique(ctx context.Context, proposal agents.Proposal, scenario agents.Context) (agents.CritiqueDecision, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Critique", ctx, proposal, scenario)
	ret0, _ := ret[0].(agents.CritiqueDecision)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Critique indicates an expected call of Critique.
func (mr *MockReasoningAgentMockRecorder) Critique(ctx, proposal, scenario any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Critique", reflect.TypeOf((*MockReasoningAgent)(nil).Critique), ctx, proposal, scenario)
}
