package purchase

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/dwarvesf/btc-strk-purchase/internal/gateway"
	"github.com/dwarvesf/btc-strk-purchase/internal/model"
	"github.com/dwarvesf/btc-strk-purchase/internal/session"
	"github.com/dwarvesf/btc-strk-purchase/internal/wallet"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) GetSwapLimits(ctx context.Context) (*model.SwapLimits, error) {
	args := m.Called(ctx)
	limits, _ := args.Get(0).(*model.SwapLimits)
	return limits, args.Error(1)
}

func (m *MockGateway) GetQuote(ctx context.Context, req gateway.QuoteRequest) (*model.Quote, error) {
	args := m.Called(ctx, req)
	quote, _ := args.Get(0).(*model.Quote)
	return quote, args.Error(1)
}

func (m *MockGateway) GetPsbtForSigning(ctx context.Context, swapID, payerAddress, payerPublicKey string) (*model.SigningPackage, error) {
	args := m.Called(ctx, swapID, payerAddress, payerPublicKey)
	pkg, _ := args.Get(0).(*model.SigningPackage)
	return pkg, args.Error(1)
}

func (m *MockGateway) SubmitSignedPsbt(ctx context.Context, swapID, signedPsbt string) (string, error) {
	args := m.Called(ctx, swapID, signedPsbt)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) WaitForBitcoinConfirmation(ctx context.Context, swapID string, onProgress func(model.ConfirmationProgress)) (bool, error) {
	args := m.Called(ctx, swapID, onProgress)
	return args.Bool(0), args.Error(1)
}

func (m *MockGateway) WaitForSwapCompletion(ctx context.Context, swapID string, timeout time.Duration) bool {
	return m.Called(ctx, swapID, timeout).Bool(0)
}

func (m *MockGateway) GetSwapStatus(ctx context.Context, swapID string) (*model.Swap, error) {
	args := m.Called(ctx, swapID)
	swap, _ := args.Get(0).(*model.Swap)
	return swap, args.Error(1)
}

type MockSigner struct {
	mock.Mock
}

func (m *MockSigner) SignPsbt(ctx context.Context, req wallet.SignRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockSessionManager struct {
	mock.Mock
}

func (m *MockSessionManager) Connect(ctx context.Context, profileID string, chain model.Chain, req session.ConnectRequest) (*session.View, error) {
	args := m.Called(ctx, profileID, chain, req)
	view, _ := args.Get(0).(*session.View)
	return view, args.Error(1)
}

func (m *MockSessionManager) Load(ctx context.Context, profileID string, chain model.Chain) (*session.View, error) {
	args := m.Called(ctx, profileID, chain)
	view, _ := args.Get(0).(*session.View)
	return view, args.Error(1)
}

func (m *MockSessionManager) Touch(ctx context.Context, profileID string, chain model.Chain, kind session.ActivityKind) (*session.View, error) {
	args := m.Called(ctx, profileID, chain, kind)
	view, _ := args.Get(0).(*session.View)
	return view, args.Error(1)
}

func (m *MockSessionManager) Disconnect(ctx context.Context, profileID string, chain model.Chain) error {
	return m.Called(ctx, profileID, chain).Error(0)
}

func (m *MockSessionManager) BitcoinAccount(ctx context.Context, profileID string) (*model.BitcoinAccount, error) {
	args := m.Called(ctx, profileID)
	account, _ := args.Get(0).(*model.BitcoinAccount)
	return account, args.Error(1)
}

func (m *MockSessionManager) Sweep(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockBtcRpc struct {
	mock.Mock
}

func (m *MockBtcRpc) Network() *chaincfg.Params {
	return &chaincfg.MainNetParams
}

func (m *MockBtcRpc) ValidateAddress(address string) error {
	return m.Called(address).Error(0)
}

func (m *MockBtcRpc) Balance(ctx context.Context, address string) (*model.Web3BigInt, error) {
	args := m.Called(ctx, address)
	balance, _ := args.Get(0).(*model.Web3BigInt)
	return balance, args.Error(1)
}

func (m *MockBtcRpc) TipHeight(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockPurchaseAttemptStore struct {
	mock.Mock
}

func (m *MockPurchaseAttemptStore) Upsert(tx *gorm.DB, attempt *model.PurchaseAttempt) error {
	return m.Called(tx, attempt).Error(0)
}

func (m *MockPurchaseAttemptStore) GetByPurchaseID(tx *gorm.DB, purchaseID string) (*model.PurchaseAttempt, error) {
	args := m.Called(tx, purchaseID)
	attempt, _ := args.Get(0).(*model.PurchaseAttempt)
	return attempt, args.Error(1)
}

func (m *MockPurchaseAttemptStore) ListByProfile(tx *gorm.DB, profileID string, limit int) ([]model.PurchaseAttempt, error) {
	args := m.Called(tx, profileID, limit)
	attempts, _ := args.Get(0).([]model.PurchaseAttempt)
	return attempts, args.Error(1)
}
