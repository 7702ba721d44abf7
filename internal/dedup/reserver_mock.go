// Code generated by MockGen. DO NOT EDIT.
// Source: dedup.go
//
// Generated by this command:
//
//	mockgen -source=dedup.go -destination=reserver_mock.go -package=dedup
//

// Package dedup is a generated GoMock package.
package dedup

import (
	context "context"
	reflect "reflect"
	time "time"

	gomock "go.uber.org/mock/gomock"
)

// MockReserver is a mock of Reserver interface.
type MockReserver struct {
	ctrl     *gomock.Controller
	recorder *MockReserverMockRecorder
}

// MockReserverMockRecorder is the mock recorder for MockReserver.
type MockReserverMockRecorder struct {
	mock *MockReserver
}

// NewMockReserver creates a new mock instance.
func NewMockReserver(ctrl *gomock.Controller) *MockReserver {
	mock := &MockReserver{ctrl: ctrl}
	mock.recorder = &MockReserverMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockReserver) EXPECT() *MockReserverMockRecorder {
	return m.recorder
}

// Reserve mocks base method.
func (m *MockReserver) Reserve(ctx context.Context, key string, receivedAt time.Time, window time.Duration) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Reserve", ctx, key, receivedAt, window)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Reserve indicates an expected call of Reserve.
func (mr *MockReserverMockRecorder) Reserve(ctx, key, receivedAt, window any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Reserve", reflect.TypeOf((*MockReserver)(nil).Reserve), ctx, key, receivedAt, window)
}
