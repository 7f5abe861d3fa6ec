package purchase

import (
	"context"
	"fmt"

	"github.com/dwarvesf/btc-strk-purchase/internal/model"
	"github.com/dwarvesf/btc-strk-purchase/internal/wallet"
)

// runSwap drives one attempt from PSBT preparation to completion or hands it
// over to the background monitor. ctx is cancelled by Cancel before broadcast
// and by Shutdown.
func (s *service) runSwap(ctx context.Context, f *flow, attempt int, swapID string, account model.BitcoinAccount) {
	stop := func(stage Stage, err error) {
		if ctx.Err() != nil {
			s.logger.Info("[runSwap] swap sequence interrupted", map[string]string{
				"purchaseID": f.id,
				"swapID":     swapID,
				"stage":      string(stage),
			})
			return
		}
		s.logger.Error(fmt.Sprintf("[runSwap][%s]", stage), map[string]string{
			"error":      err.Error(),
			"purchaseID": f.id,
			"swapID":     swapID,
		})
		s.fail(ctx, f, attempt, gatewayFailure(err, stage))
	}

	pkg, err := s.gateway.GetPsbtForSigning(ctx, swapID, account.PaymentAddress, account.PaymentPublicKey)
	if err != nil {
		stop(StagePreparePsbt, err)
		return
	}

	if !s.enter(ctx, f, attempt, StageSignPsbt, "Please sign the transaction in your wallet...") {
		return
	}

	signed, err := s.signer.SignPsbt(ctx, wallet.SignRequest{PurchaseID: f.id, Package: *pkg})
	if err != nil {
		stop(StageSignPsbt, err)
		return
	}

	// From here the spend may already be on the network, so Cancel only dismisses.
	if !s.enter(ctx, f, attempt, StageBroadcast, "Broadcasting Bitcoin transaction...") {
		return
	}

	txID, err := s.gateway.SubmitSignedPsbt(ctx, swapID, signed)
	if err != nil {
		stop(StageBroadcast, err)
		return
	}

	if _, err := s.update(ctx, f, attempt, func(f *flow) error {
		if f.p.Step != StepSwap {
			return ErrInvalidTransition
		}
		f.p.BtcTxID = txID
		f.currentStage = StageBitcoinConfirmation
		f.p.Progress = "Waiting for Bitcoin confirmations..."
		return nil
	}); err != nil {
		return
	}

	s.logger.Info("[runSwap] bitcoin transaction broadcast", map[string]string{
		"purchaseID": f.id,
		"swapID":     swapID,
		"btcTxID":    txID,
	})

	confirmed, err := s.gateway.WaitForBitcoinConfirmation(ctx, swapID, func(p model.ConfirmationProgress) {
		s.update(ctx, f, attempt, func(f *flow) error {
			if f.p.Step != StepSwap {
				return ErrInvalidTransition
			}
			progress := p
			f.p.Confirmations = &progress
			f.p.Progress = fmt.Sprintf("Bitcoin confirmations: %d/%d", p.Confirmations, p.TargetConfirmations)
			return nil
		})
	})
	if err != nil {
		stop(StageBitcoinConfirmation, err)
		return
	}
	if !confirmed {
		if s.ctx.Err() != nil {
			return
		}
		s.fail(ctx, f, attempt, &Failure{
			Kind:    FailureSwapFailed,
			Stage:   StageBitcoinConfirmation,
			Message: "Bitcoin transaction failed to confirm",
		})
		return
	}

	if !s.enter(ctx, f, attempt, StageSwapCompletion, "Waiting for the liquidity provider to deliver STRK...") {
		return
	}

	if s.gateway.WaitForSwapCompletion(ctx, swapID, s.completionTimeout) {
		s.complete(ctx, f, attempt, nil)
		return
	}
	if s.ctx.Err() != nil {
		return
	}

	// A completion timeout is not a failure. Only an explicit status read decides.
	swap, err := s.gateway.GetSwapStatus(ctx, swapID)
	if err == nil && s.settle(ctx, f, attempt, swap, StageSwapCompletion) {
		return
	}
	if err != nil {
		s.logger.Warn("[runSwap][gateway.GetSwapStatus] falling back to monitoring", map[string]string{
			"error":      err.Error(),
			"purchaseID": f.id,
			"swapID":     swapID,
		})
	}

	s.startMonitor(ctx, f, attempt, swapID)
}

// enter records the next swap stage. It returns false when the attempt is no
// longer in the swap step.
func (s *service) enter(ctx context.Context, f *flow, attempt int, stage Stage, progress string) bool {
	_, err := s.update(ctx, f, attempt, func(f *flow) error {
		if f.p.Step != StepSwap {
			return ErrInvalidTransition
		}
		f.currentStage = stage
		if stage == StageBroadcast {
			f.broadcasting = true
		}
		f.p.Progress = progress
		return nil
	})
	return err == nil
}

// settle applies a terminal swap snapshot and reports whether it was one.
func (s *service) settle(ctx context.Context, f *flow, attempt int, swap *model.Swap, stage Stage) bool {
	switch {
	case swap.State.IsSuccess():
		s.complete(ctx, f, attempt, swap)
		return true

	case swap.State.IsFailure():
		failure := &Failure{
			Kind:    FailureSwapFailed,
			Stage:   stage,
			Message: fmt.Sprintf("Swap failed: %s. Swap ID: %s", swap.State.Description(), swap.ID),
		}
		if swap.State == model.SwapStateDeclined {
			failure.Kind = FailureSwapDeclined
			failure.Message = fmt.Sprintf("Swap was declined by the liquidity provider. Swap ID: %s", swap.ID)
		}
		s.update(ctx, f, attempt, func(f *flow) error {
			if err := s.markFailed(f, failure); err != nil {
				return err
			}
			f.p.Swap = swap
			return nil
		})
		return true
	}

	return false
}
