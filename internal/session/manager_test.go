package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/dwarvesf/btc-strk-purchase/internal/consts"
	"github.com/dwarvesf/btc-strk-purchase/internal/model"
	"github.com/dwarvesf/btc-strk-purchase/internal/store"
	"github.com/dwarvesf/btc-strk-purchase/internal/types/environments"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
	"github.com/dwarvesf/btc-strk-purchase/internal/wallet"
)

type MockWalletSessionStore struct {
	mock.Mock
}

func (m *MockWalletSessionStore) Get(tx *gorm.DB, profileID, storageKey string) (*model.WalletSession, error) {
	args := m.Called(tx, profileID, storageKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletSession), args.Error(1)
}

func (m *MockWalletSessionStore) Upsert(tx *gorm.DB, session *model.WalletSession) error {
	return m.Called(tx, session).Error(0)
}

func (m *MockWalletSessionStore) UpdateLastActivity(tx *gorm.DB, profileID, storageKey string, at time.Time) error {
	return m.Called(tx, profileID, storageKey, at).Error(0)
}

func (m *MockWalletSessionStore) Delete(tx *gorm.DB, profileID, storageKey string) error {
	return m.Called(tx, profileID, storageKey).Error(0)
}

func (m *MockWalletSessionStore) ListStale(tx *gorm.DB, connectedBefore, activeBefore time.Time) ([]model.WalletSession, error) {
	args := m.Called(tx, connectedBefore, activeBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WalletSession), args.Error(1)
}

const (
	testProfile = "profile-1"
	testAddress = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	testPubKey  = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
)

func bitcoinRecord(at time.Time) *model.WalletSession {
	raw, _ := json.Marshal(model.BitcoinAccount{PaymentAddress: testAddress, PaymentPublicKey: testPubKey})
	return &model.WalletSession{
		ProfileID:     testProfile,
		Chain:         model.ChainBitcoin,
		StorageKey:    consts.BitcoinSessionStorageKey,
		Account:       string(raw),
		ConnectedAt:   at,
		LastActivity:  at,
		SchemaVersion: consts.SessionSchemaVersion,
	}
}

var _ = Describe("Manager", func() {
	var (
		ctx       context.Context
		fc        *clockwork.FakeClock
		mockStore *MockWalletSessionStore
		m         *manager
	)

	BeforeEach(func() {
		ctx = context.Background()
		fc = clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
		mockStore = &MockWalletSessionStore{}
		m = &manager{
			store:    &store.Store{WalletSession: mockStore},
			policy:   Policy{MaxAge: 24 * time.Hour, IdleTimeout: 2 * time.Hour, WarningWindow: 10 * time.Minute},
			params:   &chaincfg.MainNetParams,
			validate: validator.New(),
			clock:    fc,
			logger:   logger.New(environments.Test),
			doInTx: func(db *gorm.DB, fn func(tx *gorm.DB) error) error {
				return fn(db)
			},
		}
	})

	AfterEach(func() {
		mockStore.AssertExpectations(GinkgoT())
	})

	Describe("#Connect", func() {
		It("stores a bitcoin session stamped with the current time", func() {
			var saved *model.WalletSession
			mockStore.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
				saved = args.Get(1).(*model.WalletSession)
			}).Return(nil).Once()

			view, err := m.Connect(ctx, testProfile, model.ChainBitcoin, ConnectRequest{
				Bitcoin: &model.BitcoinAccount{PaymentAddress: testAddress, PaymentPublicKey: testPubKey},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(saved.StorageKey).To(Equal(consts.BitcoinSessionStorageKey))
			Expect(saved.ConnectedAt).To(Equal(fc.Now()))
			Expect(saved.SchemaVersion).To(Equal(consts.SessionSchemaVersion))
			Expect(view.Bitcoin.PaymentAddress).To(Equal(testAddress))
			Expect(view.ExpiresAt).To(Equal(fc.Now().Add(2 * time.Hour)))
			Expect(view.ExpiringSoon).To(BeFalse())
		})

		It("normalizes the starknet address", func() {
			var saved *model.WalletSession
			mockStore.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
				saved = args.Get(1).(*model.WalletSession)
			}).Return(nil).Once()

			view, err := m.Connect(ctx, testProfile, model.ChainStarknet, ConnectRequest{
				Starknet: &model.StarknetAccount{Address: "0x49d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7", Connector: "argentX"},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(saved.StorageKey).To(Equal(consts.StarknetSessionStorageKey))
			Expect(view.Starknet.Address).To(Equal("0x049d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7"))
			Expect(view.Starknet.Connector).To(Equal("argentX"))
		})

		It("reports a cancelled prompt without storing anything", func() {
			_, err := m.Connect(ctx, testProfile, model.ChainBitcoin, ConnectRequest{Cancelled: true})
			Expect(err).To(MatchError(wallet.ErrConnectionCancelled))
		})

		It("rejects an address from another network", func() {
			_, err := m.Connect(ctx, testProfile, model.ChainBitcoin, ConnectRequest{
				Bitcoin: &model.BitcoinAccount{PaymentAddress: "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", PaymentPublicKey: testPubKey},
			})
			Expect(errors.Is(err, ErrInvalidAccount)).To(BeTrue())
		})

		It("rejects a missing account", func() {
			_, err := m.Connect(ctx, testProfile, model.ChainStarknet, ConnectRequest{})
			Expect(errors.Is(err, ErrInvalidAccount)).To(BeTrue())
		})

		It("rejects an unknown chain", func() {
			_, err := m.Connect(ctx, testProfile, model.Chain("solana"), ConnectRequest{})
			Expect(errors.Is(err, ErrUnknownChain)).To(BeTrue())
		})
	})

	Describe("#Load", func() {
		It("returns a live session", func() {
			mockStore.On("Get", mock.Anything, testProfile, consts.BitcoinSessionStorageKey).
				Return(bitcoinRecord(fc.Now().Add(-time.Hour)), nil).Once()

			view, err := m.Load(ctx, testProfile, model.ChainBitcoin)
			Expect(err).NotTo(HaveOccurred())
			Expect(view.Remaining).To(Equal(time.Hour))
		})

		It("keeps a session idle for exactly the timeout", func() {
			mockStore.On("Get", mock.Anything, testProfile, consts.BitcoinSessionStorageKey).
				Return(bitcoinRecord(fc.Now().Add(-2*time.Hour)), nil).Once()

			view, err := m.Load(ctx, testProfile, model.ChainBitcoin)
			Expect(err).NotTo(HaveOccurred())
			Expect(view.ExpiringSoon).To(BeTrue())
		})

		It("clears an expired session", func() {
			mockStore.On("Get", mock.Anything, testProfile, consts.BitcoinSessionStorageKey).
				Return(bitcoinRecord(fc.Now().Add(-2*time.Hour-time.Second)), nil).Once()
			mockStore.On("Delete", mock.Anything, testProfile, consts.BitcoinSessionStorageKey).Return(nil).Once()

			_, err := m.Load(ctx, testProfile, model.ChainBitcoin)
			Expect(err).To(MatchError(ErrSessionExpired))
		})

		It("treats a record from another schema version as absent", func() {
			record := bitcoinRecord(fc.Now())
			record.SchemaVersion = consts.SessionSchemaVersion + 1
			mockStore.On("Get", mock.Anything, testProfile, consts.BitcoinSessionStorageKey).Return(record, nil).Once()
			mockStore.On("Delete", mock.Anything, testProfile, consts.BitcoinSessionStorageKey).Return(nil).Once()

			_, err := m.Load(ctx, testProfile, model.ChainBitcoin)
			Expect(err).To(MatchError(ErrSessionNotFound))
		})

		It("treats a corrupt account as absent", func() {
			record := bitcoinRecord(fc.Now())
			record.Account = "{not json"
			mockStore.On("Get", mock.Anything, testProfile, consts.BitcoinSessionStorageKey).Return(record, nil).Once()
			mockStore.On("Delete", mock.Anything, testProfile, consts.BitcoinSessionStorageKey).Return(nil).Once()

			_, err := m.Load(ctx, testProfile, model.ChainBitcoin)
			Expect(err).To(MatchError(ErrSessionNotFound))
		})

		It("maps a missing row to not found", func() {
			mockStore.On("Get", mock.Anything, testProfile, consts.StarknetSessionStorageKey).
				Return(nil, gorm.ErrRecordNotFound).Once()

			_, err := m.Load(ctx, testProfile, model.ChainStarknet)
			Expect(err).To(MatchError(ErrSessionNotFound))
		})
	})

	Describe("#Touch", func() {
		It("refreshes the bitcoin session on explicit activity", func() {
			mockStore.On("Get", mock.Anything, testProfile, consts.BitcoinSessionStorageKey).
				Return(bitcoinRecord(fc.Now().Add(-time.Hour)), nil).Once()
			mockStore.On("UpdateLastActivity", mock.Anything, testProfile, consts.BitcoinSessionStorageKey, fc.Now()).
				Return(nil).Once()

			view, err := m.Touch(ctx, testProfile, model.ChainBitcoin, ActivityExplicit)
			Expect(err).NotTo(HaveOccurred())
			Expect(view.LastActivity).To(Equal(fc.Now()))
		})

		It("ignores passive activity for bitcoin", func() {
			mockStore.On("Get", mock.Anything, testProfile, consts.BitcoinSessionStorageKey).
				Return(bitcoinRecord(fc.Now().Add(-time.Hour)), nil).Once()

			view, err := m.Touch(ctx, testProfile, model.ChainBitcoin, ActivityScroll)
			Expect(err).NotTo(HaveOccurred())
			Expect(view.LastActivity).To(Equal(fc.Now().Add(-time.Hour)))
			mockStore.AssertNotCalled(GinkgoT(), "UpdateLastActivity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})

		It("rejects unknown activity", func() {
			_, err := m.Touch(ctx, testProfile, model.ChainBitcoin, ActivityKind("wheel"))
			Expect(errors.Is(err, ErrUnknownActivity)).To(BeTrue())
		})
	})

	Describe("#Sweep", func() {
		It("removes only sessions that are past a threshold", func() {
			now := fc.Now()
			expired := *bitcoinRecord(now.Add(-3 * time.Hour))
			boundary := *bitcoinRecord(now.Add(-2 * time.Hour))
			boundary.ProfileID = "profile-2"

			mockStore.On("ListStale", mock.Anything, now.Add(-24*time.Hour), now.Add(-2*time.Hour)).
				Return([]model.WalletSession{expired, boundary}, nil).Once()
			mockStore.On("Delete", mock.Anything, testProfile, consts.BitcoinSessionStorageKey).Return(nil).Once()

			removed, err := m.Sweep(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(Equal(1))
		})

		It("returns the store error", func() {
			mockStore.On("ListStale", mock.Anything, mock.Anything, mock.Anything).
				Return(nil, errors.New("connection reset")).Once()

			removed, err := m.Sweep(ctx)
			Expect(err).To(MatchError("connection reset"))
			Expect(removed).To(BeZero())
		})
	})
})
