package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dwarvesf/btc-strk-purchase/internal/btcrpc"
	"github.com/dwarvesf/btc-strk-purchase/internal/consts"
	"github.com/dwarvesf/btc-strk-purchase/internal/model"
	"github.com/dwarvesf/btc-strk-purchase/internal/store"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/config"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
	"github.com/dwarvesf/btc-strk-purchase/internal/wallet"
)

type manager struct {
	db       *gorm.DB
	store    *store.Store
	policy   Policy
	params   *chaincfg.Params
	validate *validator.Validate
	clock    clockwork.Clock
	logger   *logger.Logger
	doInTx   func(db *gorm.DB, fn func(tx *gorm.DB) error) error
}

func New(db *gorm.DB, s *store.Store, appConfig *config.AppConfig, logger *logger.Logger, clock clockwork.Clock) (IManager, error) {
	params, err := btcrpc.NetworkParams(appConfig.Bitcoin.Network)
	if err != nil {
		return nil, err
	}

	return &manager{
		db:       db,
		store:    s,
		policy:   PolicyFromConfig(appConfig.Session),
		params:   params,
		validate: validator.New(),
		clock:    clock,
		logger:   logger,
		doInTx:   store.DoInTx,
	}, nil
}

func storageKey(chain model.Chain) (string, error) {
	switch chain {
	case model.ChainBitcoin:
		return consts.BitcoinSessionStorageKey, nil
	case model.ChainStarknet:
		return consts.StarknetSessionStorageKey, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChain, chain)
}

func (m *manager) Connect(ctx context.Context, profileID string, chain model.Chain, req ConnectRequest) (*View, error) {
	if req.Cancelled {
		return nil, wallet.ErrConnectionCancelled
	}

	key, err := storageKey(chain)
	if err != nil {
		return nil, err
	}

	account, err := m.encodeAccount(chain, req)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	record := &model.WalletSession{
		ProfileID:     profileID,
		Chain:         chain,
		StorageKey:    key,
		Account:       account,
		ConnectedAt:   now,
		LastActivity:  now,
		SchemaVersion: consts.SessionSchemaVersion,
	}

	if err := m.store.WalletSession.Upsert(store.WithContext(m.db, ctx), record); err != nil {
		m.logger.Error("[Connect][WalletSession.Upsert]", map[string]string{
			"error":     err.Error(),
			"profileID": profileID,
			"chain":     string(chain),
		})
		return nil, errors.Wrap(err, "failed to save wallet session")
	}

	m.logger.Info("[Connect] wallet connected", map[string]string{
		"profileID": profileID,
		"chain":     string(chain),
	})

	return m.view(ctx, record, now)
}

func (m *manager) encodeAccount(chain model.Chain, req ConnectRequest) (string, error) {
	var account interface{}

	switch chain {
	case model.ChainBitcoin:
		if req.Bitcoin == nil {
			return "", fmt.Errorf("%w: bitcoin account missing", ErrInvalidAccount)
		}
		if err := m.validateBitcoinAccount(req.Bitcoin); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidAccount, err)
		}
		account = req.Bitcoin

	case model.ChainStarknet:
		if req.Starknet == nil {
			return "", fmt.Errorf("%w: starknet account missing", ErrInvalidAccount)
		}
		if err := m.validate.Struct(req.Starknet); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidAccount, err)
		}
		address, err := normalizeStarknetAddress(req.Starknet.Address)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidAccount, err)
		}
		account = model.StarknetAccount{Address: address, Connector: req.Starknet.Connector}
	}

	raw, err := json.Marshal(account)
	if err != nil {
		return "", err
	}

	return string(raw), nil
}

func (m *manager) validateBitcoinAccount(acc *model.BitcoinAccount) error {
	if err := m.validate.Struct(acc); err != nil {
		return err
	}
	if err := btcrpc.ValidateAddress(acc.PaymentAddress, m.params); err != nil {
		return err
	}
	if err := btcrpc.ValidatePublicKey(acc.PaymentPublicKey); err != nil {
		return err
	}
	if acc.OrdinalsAddress != "" {
		if err := btcrpc.ValidateAddress(acc.OrdinalsAddress, m.params); err != nil {
			return err
		}
	}
	if acc.OrdinalsPublicKey != "" {
		if err := btcrpc.ValidatePublicKey(acc.OrdinalsPublicKey); err != nil {
			return err
		}
	}

	return nil
}

// load returns a live record. Expired, outdated and unreadable records are
// removed on the way.
func (m *manager) load(ctx context.Context, profileID string, chain model.Chain) (*model.WalletSession, error) {
	key, err := storageKey(chain)
	if err != nil {
		return nil, err
	}

	tx := store.WithContext(m.db, ctx)
	record, err := m.store.WalletSession.Get(tx, profileID, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		m.logger.Error("[load][WalletSession.Get]", map[string]string{
			"error":     err.Error(),
			"profileID": profileID,
			"chain":     string(chain),
		})
		return nil, errors.Wrap(err, "failed to load wallet session")
	}

	if record.SchemaVersion != consts.SessionSchemaVersion {
		m.clear(ctx, record, "schema_version="+strconv.Itoa(record.SchemaVersion))
		return nil, ErrSessionNotFound
	}

	now := m.clock.Now()
	if m.policy.IsExpired(record, now) {
		m.clear(ctx, record, "expired")
		return nil, ErrSessionExpired
	}

	return record, nil
}

func (m *manager) clear(ctx context.Context, record *model.WalletSession, reason string) {
	if err := m.store.WalletSession.Delete(store.WithContext(m.db, ctx), record.ProfileID, record.StorageKey); err != nil {
		m.logger.Error("[clear][WalletSession.Delete]", map[string]string{
			"error":     err.Error(),
			"profileID": record.ProfileID,
			"chain":     string(record.Chain),
		})
		return
	}

	m.logger.Info("[clear] wallet session removed", map[string]string{
		"profileID": record.ProfileID,
		"chain":     string(record.Chain),
		"reason":    reason,
	})
}

func (m *manager) view(ctx context.Context, record *model.WalletSession, now time.Time) (*View, error) {
	v := &View{
		Chain:        record.Chain,
		ConnectedAt:  record.ConnectedAt,
		LastActivity: record.LastActivity,
		ExpiresAt:    m.policy.ExpiresAt(record),
		Remaining:    m.policy.Remaining(record, now),
		ExpiringSoon: m.policy.IsExpiringSoon(record, now),
	}

	var err error
	switch record.Chain {
	case model.ChainBitcoin:
		v.Bitcoin = &model.BitcoinAccount{}
		err = json.Unmarshal([]byte(record.Account), v.Bitcoin)
	case model.ChainStarknet:
		v.Starknet = &model.StarknetAccount{}
		err = json.Unmarshal([]byte(record.Account), v.Starknet)
	}
	if err != nil {
		m.clear(ctx, record, "unreadable account")
		return nil, ErrSessionNotFound
	}

	return v, nil
}

func (m *manager) Load(ctx context.Context, profileID string, chain model.Chain) (*View, error) {
	record, err := m.load(ctx, profileID, chain)
	if err != nil {
		return nil, err
	}

	return m.view(ctx, record, m.clock.Now())
}

func (m *manager) Touch(ctx context.Context, profileID string, chain model.Chain, kind ActivityKind) (*View, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivity, kind)
	}

	record, err := m.load(ctx, profileID, chain)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	if !kind.AppliesTo(chain) {
		return m.view(ctx, record, now)
	}

	if err := m.store.WalletSession.UpdateLastActivity(store.WithContext(m.db, ctx), profileID, record.StorageKey, now); err != nil {
		m.logger.Error("[Touch][WalletSession.UpdateLastActivity]", map[string]string{
			"error":     err.Error(),
			"profileID": profileID,
			"chain":     string(chain),
		})
		return nil, errors.Wrap(err, "failed to refresh wallet session")
	}
	record.LastActivity = now

	return m.view(ctx, record, now)
}

func (m *manager) Disconnect(ctx context.Context, profileID string, chain model.Chain) error {
	key, err := storageKey(chain)
	if err != nil {
		return err
	}

	if err := m.store.WalletSession.Delete(store.WithContext(m.db, ctx), profileID, key); err != nil {
		m.logger.Error("[Disconnect][WalletSession.Delete]", map[string]string{
			"error":     err.Error(),
			"profileID": profileID,
			"chain":     string(chain),
		})
		return errors.Wrap(err, "failed to remove wallet session")
	}

	return nil
}

func (m *manager) BitcoinAccount(ctx context.Context, profileID string) (*model.BitcoinAccount, error) {
	v, err := m.Load(ctx, profileID, model.ChainBitcoin)
	if err != nil {
		return nil, err
	}

	return v.Bitcoin, nil
}

func (m *manager) Sweep(ctx context.Context) (int, error) {
	now := m.clock.Now()
	removed := 0

	err := m.doInTx(store.WithContext(m.db, ctx), func(tx *gorm.DB) error {
		stale, err := m.store.WalletSession.ListStale(tx, now.Add(-m.policy.MaxAge), now.Add(-m.policy.IdleTimeout))
		if err != nil {
			return err
		}

		for i := range stale {
			s := &stale[i]
			if !m.policy.IsExpired(s, now) {
				continue
			}
			if err := m.store.WalletSession.Delete(tx, s.ProfileID, s.StorageKey); err != nil {
				return err
			}
			removed++

			m.logger.Info("[Sweep] session expired, wallet disconnected", map[string]string{
				"profileID": s.ProfileID,
				"chain":     string(s.Chain),
			})
		}

		return nil
	})
	if err != nil {
		m.logger.Error("[Sweep][doInTx]", map[string]string{
			"error": err.Error(),
		})
		return 0, err
	}

	return removed, nil
}
