// Package purchasetest provides a testify mock of purchase.IService for
// handler tests.
package purchasetest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dwarvesf/btc-strk-purchase/internal/purchase"
)

type MockService struct {
	mock.Mock
}

var _ purchase.IService = (*MockService)(nil)

func (m *MockService) result(args mock.Arguments) (*purchase.Purchase, error) {
	p, _ := args.Get(0).(*purchase.Purchase)
	return p, args.Error(1)
}

func (m *MockService) Start(ctx context.Context, req purchase.StartRequest) (*purchase.Purchase, error) {
	return m.result(m.Called(ctx, req))
}

func (m *MockService) Confirm(ctx context.Context, id string) (*purchase.Purchase, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockService) Cancel(ctx context.Context, id string) (*purchase.Purchase, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockService) Retry(ctx context.Context, id string) (*purchase.Purchase, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockService) StopMonitoring(ctx context.Context, id string) (*purchase.Purchase, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockService) Get(ctx context.Context, id string) (*purchase.Purchase, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockService) List(ctx context.Context, profileID string) ([]purchase.Purchase, error) {
	args := m.Called(ctx, profileID)
	list, _ := args.Get(0).([]purchase.Purchase)
	return list, args.Error(1)
}

func (m *MockService) OnSuccess(hook purchase.SuccessHook) {
	m.Called(hook)
}

func (m *MockService) Shutdown() {
	m.Called()
}
