package purchase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dwarvesf/btc-strk-purchase/internal/btcrpc"
	"github.com/dwarvesf/btc-strk-purchase/internal/consts"
	"github.com/dwarvesf/btc-strk-purchase/internal/gateway"
	"github.com/dwarvesf/btc-strk-purchase/internal/model"
	"github.com/dwarvesf/btc-strk-purchase/internal/monitoring"
	"github.com/dwarvesf/btc-strk-purchase/internal/session"
	"github.com/dwarvesf/btc-strk-purchase/internal/store"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/config"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
	"github.com/dwarvesf/btc-strk-purchase/internal/wallet"
)

var errStale = errors.New("stale purchase attempt")

const listLimit = 50

type flow struct {
	id string

	mu        sync.Mutex
	p         Purchase
	startedAt time.Time

	cancelSwap   context.CancelFunc
	stopMonitor  context.CancelFunc
	broadcasting bool
	currentStage Stage
}

// snapshot copies the purchase under the flow lock.
func (f *flow) snapshot() Purchase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.p
}

type service struct {
	db       *gorm.DB
	store    *store.Store
	gateway  gateway.IGateway
	signer   wallet.ISigner
	sessions session.IManager
	btcRpc   btcrpc.IBtcRpc
	logger   *logger.Logger
	metrics  *monitoring.PurchaseMetrics
	clock    clockwork.Clock
	validate *validator.Validate

	completionTimeout  time.Duration
	monitorInterval    time.Duration
	monitorMaxAttempts int

	mu    sync.RWMutex
	flows map[string]*flow
	hooks []SuccessHook

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(
	db *gorm.DB,
	s *store.Store,
	gw gateway.IGateway,
	signer wallet.ISigner,
	sessions session.IManager,
	btcRpc btcrpc.IBtcRpc,
	appConfig *config.AppConfig,
	logger *logger.Logger,
	metrics *monitoring.PurchaseMetrics,
	clock clockwork.Clock,
) IService {
	ctx, cancel := context.WithCancel(context.Background())

	svc := &service{
		db:                 db,
		store:              s,
		gateway:            gw,
		signer:             signer,
		sessions:           sessions,
		btcRpc:             btcRpc,
		logger:             logger,
		metrics:            metrics,
		clock:              clock,
		validate:           validator.New(),
		completionTimeout:  appConfig.Purchase.CompletionTimeout,
		monitorInterval:    appConfig.Purchase.MonitorInterval,
		monitorMaxAttempts: appConfig.Purchase.MonitorMaxAttempts,
		flows:              make(map[string]*flow),
		ctx:                ctx,
		cancel:             cancel,
	}

	if svc.completionTimeout <= 0 {
		svc.completionTimeout = consts.DefaultCompletionTimeout
	}
	if svc.monitorInterval <= 0 {
		svc.monitorInterval = consts.DefaultMonitorInterval
	}
	if svc.monitorMaxAttempts <= 0 {
		svc.monitorMaxAttempts = consts.DefaultMonitorMaxAttempts
	}

	return svc
}

func (s *service) OnSuccess(hook SuccessHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

func (s *service) Shutdown() {
	s.cancel()
	s.wg.Wait()
}

func (s *service) lookup(id string) (*flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flows[id]
	if !ok {
		return nil, ErrPurchaseNotFound
	}
	return f, nil
}

func (s *service) Start(ctx context.Context, req StartRequest) (*Purchase, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	now := s.clock.Now()
	id := uuid.NewString()
	f := &flow{
		id: id,
		p: Purchase{
			ID:            id,
			ProfileID:     req.ProfileID,
			AssetID:       req.AssetID,
			SellerAddress: req.SellerAddress,
			PriceSats:     req.PriceSats,
			Step:          StepQuote,
			Attempt:       1,
			Progress:      "Fetching quote...",
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		startedAt: now,
	}

	s.mu.Lock()
	s.flows[f.id] = f
	s.mu.Unlock()

	s.metrics.RecordStarted()
	s.persist(ctx, f.snapshot())

	s.logger.Info("[Start] purchase started", map[string]string{
		"purchaseID": f.id,
		"profileID":  req.ProfileID,
		"assetID":    req.AssetID,
		"priceSats":  fmt.Sprint(req.PriceSats),
	})

	return s.acquireQuote(ctx, f, 1)
}

// acquireQuote runs the local checks and fetches a quote for attempt.
func (s *service) acquireQuote(ctx context.Context, f *flow, attempt int) (*Purchase, error) {
	p := f.snapshot()

	account, err := s.sessions.BitcoinAccount(ctx, p.ProfileID)
	if err != nil {
		return s.fail(ctx, f, attempt, sessionFailure(err))
	}

	balance, err := s.btcRpc.Balance(ctx, account.PaymentAddress)
	if err != nil {
		s.logger.Warn("[acquireQuote][btcRpc.Balance] balance unavailable, skipping check", map[string]string{
			"error":      err.Error(),
			"purchaseID": p.ID,
		})
	} else if sats, ok := balance.Int64(); ok && sats < p.PriceSats {
		return s.fail(ctx, f, attempt, &Failure{
			Kind: FailureInsufficientBalance,
			Message: fmt.Sprintf("Insufficient BTC balance. Required %s BTC, available %s BTC.",
				decimal.New(p.PriceSats, -consts.BTC_DECIMALS).String(),
				decimal.New(sats, -consts.BTC_DECIMALS).String()),
		})
	}

	quote, err := s.gateway.GetQuote(ctx, gateway.QuoteRequest{
		AmountSats:         p.PriceSats,
		DestinationAddress: p.SellerAddress,
		ExactIn:            true,
	})
	if err != nil {
		s.logger.Error("[acquireQuote][gateway.GetQuote]", map[string]string{
			"error":      err.Error(),
			"purchaseID": p.ID,
		})
		return s.fail(ctx, f, attempt, gatewayFailure(err, StageNone))
	}

	return s.update(ctx, f, attempt, func(f *flow) error {
		if err := s.moveTo(f, StepConfirm); err != nil {
			return err
		}
		f.p.Quote = quote
		f.p.Progress = "Review the quote and confirm your purchase."
		return nil
	})
}

func (s *service) Confirm(ctx context.Context, id string) (*Purchase, error) {
	f, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	p := f.snapshot()
	if p.Step != StepConfirm {
		return nil, fmt.Errorf("%w: cannot confirm from %s", ErrInvalidTransition, p.Step)
	}

	account, err := s.sessions.BitcoinAccount(ctx, p.ProfileID)
	if err != nil {
		return s.fail(ctx, f, p.Attempt, sessionFailure(err))
	}
	if p.Quote == nil || p.Quote.IsExpired(s.clock.Now()) {
		return s.fail(ctx, f, p.Attempt, &Failure{
			Kind:    FailureQuoteExpired,
			Message: "Quote expired. Please request a new quote.",
		})
	}

	swapCtx, cancelSwap := context.WithCancel(s.ctx)
	snap, err := s.update(ctx, f, p.Attempt, func(f *flow) error {
		if err := s.moveTo(f, StepSwap); err != nil {
			return err
		}
		f.cancelSwap = cancelSwap
		f.broadcasting = false
		f.currentStage = StagePreparePsbt
		f.p.Progress = "Preparing Bitcoin transaction..."
		return nil
	})
	if err != nil {
		cancelSwap()
		return nil, err
	}

	if _, err := s.sessions.Touch(ctx, p.ProfileID, model.ChainBitcoin, session.ActivityExplicit); err != nil {
		s.logger.Warn("[Confirm][sessions.Touch]", map[string]string{
			"error":      err.Error(),
			"purchaseID": id,
		})
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancelSwap()
		s.runSwap(swapCtx, f, p.Attempt, p.Quote.ID, *account)
	}()

	return snap, nil
}

func (s *service) Cancel(ctx context.Context, id string) (*Purchase, error) {
	f, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	var cancelSwap context.CancelFunc
	snap, err := s.update(ctx, f, 0, func(f *flow) error {
		switch f.p.Step {
		case StepQuote, StepConfirm:
			if err := s.moveTo(f, StepCancelled); err != nil {
				return err
			}
			f.p.Progress = "Purchase cancelled."
			return nil

		case StepSwap:
			if f.broadcasting {
				f.p.Dismissed = true
				return nil
			}
			failure := &Failure{Kind: FailureCancelled, Stage: f.currentStage, Message: "Purchase cancelled."}
			if f.currentStage == StageSignPsbt {
				failure.Kind, failure.Message = FailureSigningCancelled, "Transaction signing was cancelled."
			}
			if err := s.markFailed(f, failure); err != nil {
				return err
			}
			cancelSwap = f.cancelSwap
			return nil
		}

		return fmt.Errorf("%w: cannot cancel from %s", ErrInvalidTransition, f.p.Step)
	})
	if err != nil {
		return nil, err
	}

	if cancelSwap != nil {
		cancelSwap()
	}

	return snap, nil
}

func (s *service) Retry(ctx context.Context, id string) (*Purchase, error) {
	f, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	var attempt int
	if _, err := s.update(ctx, f, 0, func(f *flow) error {
		if err := s.moveTo(f, StepQuote); err != nil {
			return err
		}
		f.p.Attempt++
		f.p.Quote = nil
		f.p.Swap = nil
		f.p.BtcTxID = ""
		f.p.Confirmations = nil
		f.p.Failure = nil
		f.p.Dismissed = false
		f.p.CompletedAt = nil
		f.p.Progress = "Fetching quote..."
		f.broadcasting = false
		f.currentStage = StageNone
		f.startedAt = s.clock.Now()
		attempt = f.p.Attempt
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.Info("[Retry] purchase retried", map[string]string{
		"purchaseID": id,
		"attempt":    fmt.Sprint(attempt),
	})

	return s.acquireQuote(ctx, f, attempt)
}

func (s *service) StopMonitoring(ctx context.Context, id string) (*Purchase, error) {
	f, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	var stop context.CancelFunc
	snap, err := s.update(ctx, f, 0, func(f *flow) error {
		if !f.p.Monitoring || f.stopMonitor == nil {
			return ErrNotMonitoring
		}

		swapID := ""
		if f.p.Quote != nil {
			swapID = f.p.Quote.ID
		}
		if err := s.markFailed(f, &Failure{
			Kind:    FailureMonitoringStopped,
			Stage:   StageMonitoring,
			Message: fmt.Sprintf("Monitoring stopped. Swap ID: %s", swapID),
		}); err != nil {
			return err
		}
		f.p.Monitoring = false
		stop = f.stopMonitor
		f.stopMonitor = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	stop()
	return snap, nil
}

func (s *service) Get(ctx context.Context, id string) (*Purchase, error) {
	f, err := s.lookup(id)
	if err == nil {
		p := f.snapshot()
		return &p, nil
	}

	attempt, err := s.store.PurchaseAttempt.GetByPurchaseID(store.WithContext(s.db, ctx), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		s.logger.Error("[Get][PurchaseAttempt.GetByPurchaseID]", map[string]string{
			"error":      err.Error(),
			"purchaseID": id,
		})
		return nil, errors.Wrap(err, "failed to load purchase")
	}

	p := fromAttempt(attempt)
	return &p, nil
}

// List merges live flows with the recorded history of profileID, newest first.
func (s *service) List(ctx context.Context, profileID string) ([]Purchase, error) {
	attempts, err := s.store.PurchaseAttempt.ListByProfile(store.WithContext(s.db, ctx), profileID, listLimit)
	if err != nil {
		s.logger.Error("[List][PurchaseAttempt.ListByProfile]", map[string]string{
			"error":     err.Error(),
			"profileID": profileID,
		})
		return nil, errors.Wrap(err, "failed to list purchases")
	}

	seen := make(map[string]bool)
	var out []Purchase

	s.mu.RLock()
	for _, f := range s.flows {
		p := f.snapshot()
		if p.ProfileID == profileID {
			out = append(out, p)
			seen[p.ID] = true
		}
	}
	s.mu.RUnlock()

	for i := range attempts {
		if !seen[attempts[i].PurchaseID] {
			out = append(out, fromAttempt(&attempts[i]))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

// update applies fn under the flow lock and persists the result. attempt 0
// skips the attempt check. fn must leave the flow untouched when it fails.
func (s *service) update(ctx context.Context, f *flow, attempt int, fn func(f *flow) error) (*Purchase, error) {
	f.mu.Lock()
	if attempt != 0 && f.p.Attempt != attempt {
		f.mu.Unlock()
		return nil, errStale
	}
	if err := fn(f); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.p.UpdatedAt = s.clock.Now()
	snap := f.p
	f.mu.Unlock()

	s.persist(ctx, snap)
	return &snap, nil
}

// moveTo changes the step. Callers hold f.mu.
func (s *service) moveTo(f *flow, to Step) error {
	from := f.p.Step
	if !canTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	f.p.Step = to
	s.metrics.RecordTransition(string(from), string(to))
	return nil
}

// markFailed moves the flow to error. Callers hold f.mu.
func (s *service) markFailed(f *flow, failure *Failure) error {
	if err := s.moveTo(f, StepError); err != nil {
		return err
	}

	f.p.Failure = failure
	f.p.Progress = failure.Message
	f.p.Monitoring = false
	s.metrics.RecordFailure(string(failure.Kind), string(failure.Stage), s.clock.Since(f.startedAt).Seconds())
	return nil
}

// fail records failure for attempt. A flow that already left the attempt or
// reached a final step keeps its state.
func (s *service) fail(ctx context.Context, f *flow, attempt int, failure *Failure) (*Purchase, error) {
	snap, err := s.update(ctx, f, attempt, func(f *flow) error {
		return s.markFailed(f, failure)
	})
	if err != nil {
		s.logger.Debug("[fail] late failure ignored", map[string]string{
			"purchaseID": f.id,
			"kind":       string(failure.Kind),
			"reason":     err.Error(),
		})
		p := f.snapshot()
		return &p, nil
	}

	s.logger.Info("[fail] purchase failed", map[string]string{
		"purchaseID": snap.ID,
		"kind":       string(failure.Kind),
		"stage":      string(failure.Stage),
	})
	return snap, nil
}

func (s *service) complete(ctx context.Context, f *flow, attempt int, swap *model.Swap) {
	snap, err := s.update(ctx, f, attempt, func(f *flow) error {
		if err := s.moveTo(f, StepComplete); err != nil {
			return err
		}
		now := s.clock.Now()
		if swap != nil {
			f.p.Swap = swap
		}
		f.p.CompletedAt = &now
		f.p.Monitoring = false
		f.p.Progress = "Purchase complete."
		s.metrics.RecordCompleted(now.Sub(f.startedAt).Seconds())
		return nil
	})
	if err != nil {
		s.logger.Debug("[complete] late completion ignored", map[string]string{
			"purchaseID": f.id,
			"reason":     err.Error(),
		})
		return
	}

	s.logger.Info("[complete] purchase complete", map[string]string{
		"purchaseID": snap.ID,
		"btcTxID":    snap.BtcTxID,
	})

	s.mu.RLock()
	hooks := append([]SuccessHook(nil), s.hooks...)
	s.mu.RUnlock()

	for _, hook := range hooks {
		hook(*snap, snap.BtcTxID)
	}
}

// persist writes the audit row. Failures are logged only.
func (s *service) persist(ctx context.Context, p Purchase) {
	tx := store.WithContext(s.db, context.WithoutCancel(ctx))
	if err := s.store.PurchaseAttempt.Upsert(tx, toAttempt(p)); err != nil {
		s.logger.Error("[persist][PurchaseAttempt.Upsert]", map[string]string{
			"error":      err.Error(),
			"purchaseID": p.ID,
			"step":       string(p.Step),
		})
	}
}

func toAttempt(p Purchase) *model.PurchaseAttempt {
	a := &model.PurchaseAttempt{
		PurchaseID:      p.ID,
		ProfileID:       p.ProfileID,
		AssetID:         p.AssetID,
		SellerAddress:   p.SellerAddress,
		PriceSats:       p.PriceSats,
		Step:            string(p.Step),
		Attempt:         p.Attempt,
		BtcTxID:         p.BtcTxID,
		ProgressMessage: p.Progress,
		Dismissed:       p.Dismissed,
		CompletedAt:     p.CompletedAt,
	}
	a.CreatedAt = p.CreatedAt
	if p.Quote != nil {
		a.SwapID = p.Quote.ID
	}
	if p.Swap != nil {
		a.DestinationTxHash = p.Swap.DestinationTxHash
	}
	if p.Failure != nil {
		a.FailureKind = string(p.Failure.Kind)
		a.FailureMessage = p.Failure.Message
		a.FailedStage = string(p.Failure.Stage)
	}
	return a
}

func fromAttempt(a *model.PurchaseAttempt) Purchase {
	p := Purchase{
		ID:            a.PurchaseID,
		ProfileID:     a.ProfileID,
		AssetID:       a.AssetID,
		SellerAddress: a.SellerAddress,
		PriceSats:     a.PriceSats,
		Step:          Step(a.Step),
		Attempt:       a.Attempt,
		Progress:      a.ProgressMessage,
		BtcTxID:       a.BtcTxID,
		Dismissed:     a.Dismissed,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
		CompletedAt:   a.CompletedAt,
	}
	if a.SwapID != "" || a.DestinationTxHash != "" {
		p.Swap = &model.Swap{ID: a.SwapID, DestinationTxHash: a.DestinationTxHash}
	}
	if a.FailureKind != "" {
		p.Failure = &Failure{Kind: FailureKind(a.FailureKind), Stage: Stage(a.FailedStage), Message: a.FailureMessage}
	}
	return p
}
