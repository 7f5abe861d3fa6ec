package wallet

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/dwarvesf/btc-strk-purchase/internal/btcrpc"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
)

type signResult struct {
	signed string
	err    error
}

type pendingSignature struct {
	req    SignRequest
	result chan signResult
}

// Broker parks a signing request until the browser answers it.
type Broker struct {
	mu      sync.Mutex
	pending map[string]*pendingSignature
	logger  *logger.Logger
}

func NewBroker(logger *logger.Logger) *Broker {
	return &Broker{
		pending: make(map[string]*pendingSignature),
		logger:  logger,
	}
}

func (b *Broker) SignPsbt(ctx context.Context, req SignRequest) (string, error) {
	p := &pendingSignature{
		req:    req,
		result: make(chan signResult, 1),
	}

	b.mu.Lock()
	if _, exists := b.pending[req.PurchaseID]; exists {
		b.mu.Unlock()
		return "", ErrSigningInProgress
	}
	b.pending[req.PurchaseID] = p
	b.mu.Unlock()

	select {
	case res := <-p.result:
		return res.signed, res.err
	case <-ctx.Done():
		b.release(req.PurchaseID, p)
		return "", errors.Wrap(ErrSigningCancelled, ctx.Err().Error())
	}
}

func (b *Broker) Pending(purchaseID string) (*SignRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pending[purchaseID]
	if !ok {
		return nil, false
	}

	req := p.req
	return &req, true
}

// Finish delivers the wallet's signature. An invalid payload leaves the
// request pending so the wallet can try again.
func (b *Broker) Finish(purchaseID, signedPsbt string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pending[purchaseID]
	if !ok {
		return ErrNoPendingRequest
	}

	if err := btcrpc.VerifySignedPsbt(p.req.Package, signedPsbt); err != nil {
		b.logger.Warn("[Finish][VerifySignedPsbt]", map[string]string{
			"error":      err.Error(),
			"purchaseID": purchaseID,
		})
		return errors.Wrap(ErrInvalidSignature, err.Error())
	}

	delete(b.pending, purchaseID)
	p.result <- signResult{signed: signedPsbt}

	return nil
}

func (b *Broker) Cancel(purchaseID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pending[purchaseID]
	if !ok {
		return ErrNoPendingRequest
	}

	delete(b.pending, purchaseID)
	p.result <- signResult{err: ErrSigningCancelled}

	return nil
}

func (b *Broker) release(purchaseID string, p *pendingSignature) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending[purchaseID] == p {
		delete(b.pending, purchaseID)
	}
}
