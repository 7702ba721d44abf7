// Code generated by MockGen. DO NOT EDIT.
// Source: service.go
//
// Generated by this command:
//
//	mockgen -source=service.go -destination=repository_mock.go -package=hold
//

// Package hold is a generated GoMock package.
package hold

import (
	context "context"
	reflect "reflect"

	uuid "github.com/google/uuid"
	gomock "go.uber.org/mock/gomock"
)

// MockRepository is a mock of Repository interface.
type MockRepository struct {
	ctrl     *gomock.Controller
	recorder *MockRepositoryMockRecorder
}

// MockRepositoryMockRecorder is the mock recorder for MockRepository.
type MockRepositoryMockRecorder struct {
	mock *MockRepository
}

// NewMockRepository creates a new mock instance.
func NewMockRepository(ctrl *gomock.Controller) *MockRepository {
	mock := &MockRepository{ctrl: ctrl}
	mock.recorder = &MockRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRepository) EXPECT() *MockRepositoryMockRecorder {
	return m.recorder
}

// CreateHold mocks base method.
func (m *MockRepository) CreateHold(ctx context.Context, h *Hold) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateHold", ctx, h)
	ret0, _ := ret[0].(error)
	return ret0
}

// CreateHold indicates an expected call of CreateHold.
func (mr *MockRepositoryMockRecorder) CreateHold(ctx, h any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateHold", reflect.TypeOf((*MockRepository)(nil).CreateHold), ctx, h)
}

// GetHold mocks base method.
func (m *MockRepository) GetHold(ctx context.Context, id uuid.UUID) (*Hold, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetHold", ctx, id)
	ret0, _ := ret[0].(*Hold)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetHold indicates an expected call of GetHold.
func (mr *MockRepositoryMockRecorder) GetHold(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetHold", reflect.TypeOf((*MockRepository)(nil).GetHold), ctx, id)
}

// ListHolds mocks base method.
func (m *MockRepository) ListHolds(ctx context.Context, filter ListFilter) ([]*Hold, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListHolds", ctx, filter)
	ret0, _ := ret[0].([]*Hold)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListHolds indicates an expected call of ListHolds.
func (mr *MockRepositoryMockRecorder) ListHolds(ctx, filter any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListHolds", reflect.TypeOf((*MockRepository)(nil).ListHolds), ctx, filter)
}

// ResolveHold mocks base method.
func (m *MockRepository) ResolveHold(ctx context.Context, id uuid.UUID, resolvedBy, resolution string) (*Hold, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ResolveHold", ctx, id, resolvedBy, resolution)
	ret0, _ := ret[0].(*Hold)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ResolveHold indicates an expected call of ResolveHold.
func (mr *MockRepositoryMockRecorder) ResolveHold(ctx, id, resolvedBy, resolution any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ResolveHold", reflect.TypeOf((*MockRepository)(nil).ResolveHold), ctx, id, resolvedBy, resolution)
}
