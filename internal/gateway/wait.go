package gateway

import (
	"context"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/dwarvesf/btc-strk-purchase/internal/model"
)

const maxConsecutiveReadErrors = 3

// sleep waits one poll interval on the gateway clock. It returns false when
// ctx ends first, so a deadline on ctx cuts the last interval short.
func (g *gateway) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-g.clock.After(g.pollInterval):
		return true
	}
}

// withLimit bounds ctx by d on the gateway clock. A zero d leaves ctx unbounded.
func (g *gateway) withLimit(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return clockwork.WithTimeout(ctx, g.clock, d)
}

func (g *gateway) WaitForBitcoinConfirmation(ctx context.Context, swapID string, onProgress func(model.ConfirmationProgress)) (bool, error) {
	waitCtx, cancel := g.withLimit(ctx, g.confirmationLimit)
	defer cancel()

	var (
		last      model.ConfirmationProgress
		maxConfs  int
		readFails int
	)

	for {
		swap, err := g.GetSwapStatus(waitCtx, swapID)
		switch {
		case err == nil:
			readFails = 0
			// confirmations never go backwards for the caller, even across reorg reports
			if swap.Confirmations > maxConfs {
				maxConfs = swap.Confirmations
			}

			progress := model.ConfirmationProgress{
				TxID:                swap.BitcoinTxID,
				Confirmations:       maxConfs,
				TargetConfirmations: swap.TargetConfirmations,
				ETA:                 swap.ETA,
			}
			if onProgress != nil && (progress.TxID != last.TxID || progress.Confirmations != last.Confirmations) {
				onProgress(progress)
			}
			last = progress

			if swap.State.IsSuccess() || swap.State == model.SwapStateBtcTxConfirmed {
				return true, nil
			}
			if swap.TargetConfirmations > 0 && maxConfs >= swap.TargetConfirmations {
				return true, nil
			}
			if swap.State.IsFailure() || swap.State == model.SwapStateQuoteExpired {
				g.logger.Warn("[WaitForBitcoinConfirmation] swap ended before confirmation", map[string]string{
					"swapID": swapID,
					"state":  swap.State.String(),
				})
				return false, nil
			}

		case errors.Is(err, ErrSwapNotFound):
			return false, err

		case ctx.Err() != nil:
			return false, ctx.Err()

		case waitCtx.Err() != nil:
			return false, nil

		default:
			readFails++
			g.logger.Warn("[WaitForBitcoinConfirmation][GetSwapStatus]", map[string]string{
				"error":    err.Error(),
				"swapID":   swapID,
				"attempts": strconv.Itoa(readFails),
			})
			if readFails >= maxConsecutiveReadErrors {
				return false, nil
			}
		}

		if !g.sleep(waitCtx) {
			return false, ctx.Err()
		}
	}
}

// WaitForSwapCompletion polls until the swap settles or timeout ends. The
// timeout also cuts off a status read in flight.
func (g *gateway) WaitForSwapCompletion(ctx context.Context, swapID string, timeout time.Duration) bool {
	waitCtx, cancel := clockwork.WithTimeout(ctx, g.clock, timeout)
	defer cancel()

	for {
		swap, err := g.GetSwapStatus(waitCtx, swapID)
		switch {
		case err == nil:
			if swap.State.IsSuccess() {
				return true
			}
			if swap.State.IsFailure() {
				return false
			}

		case errors.Is(err, ErrSwapNotFound), waitCtx.Err() != nil:
			return false

		default:
			g.logger.Warn("[WaitForSwapCompletion][GetSwapStatus]", map[string]string{
				"error":  err.Error(),
				"swapID": swapID,
			})
		}

		if !g.sleep(waitCtx) {
			return false
		}
	}
}
