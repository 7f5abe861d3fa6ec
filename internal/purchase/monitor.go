package purchase

import (
	"context"
	"fmt"

	"github.com/dwarvesf/btc-strk-purchase/internal/model"
)

// startMonitor keeps polling a swap that outlived the completion wait. It runs
// under the service context, so dismissing the purchase does not stop it.
func (s *service) startMonitor(ctx context.Context, f *flow, attempt int, swapID string) {
	monitorCtx, stop := context.WithCancel(s.ctx)

	if _, err := s.update(ctx, f, attempt, func(f *flow) error {
		if f.p.Step != StepSwap {
			return ErrInvalidTransition
		}
		f.currentStage = StageMonitoring
		f.stopMonitor = stop
		f.p.Monitoring = true
		f.p.Progress = fmt.Sprintf("Swap is taking longer than expected. Swap ID: %s", swapID)
		return nil
	}); err != nil {
		stop()
		return
	}

	s.logger.Info("[startMonitor] swap moved to background monitoring", map[string]string{
		"purchaseID": f.id,
		"swapID":     swapID,
	})

	s.metrics.MonitorStarted()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.metrics.MonitorStopped()
		defer stop()
		s.monitor(monitorCtx, f, attempt, swapID)
	}()
}

func (s *service) monitor(ctx context.Context, f *flow, attempt int, swapID string) {
	for poll := 1; poll <= s.monitorMaxAttempts; poll++ {
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(s.monitorInterval):
		}

		swap, err := s.gateway.GetSwapStatus(ctx, swapID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("[monitor][gateway.GetSwapStatus]", map[string]string{
				"error":      err.Error(),
				"purchaseID": f.id,
				"swapID":     swapID,
				"poll":       fmt.Sprint(poll),
			})
			s.setProgress(ctx, f, attempt, fmt.Sprintf("Status check failed: %s", gatewayFailure(err, StageMonitoring).Message))
			s.fail(ctx, f, attempt, &Failure{
				Kind:    FailureSwapFailed,
				Stage:   StageMonitoring,
				Message: fmt.Sprintf("Unable to check swap status. Swap ID: %s", swapID),
			})
			return
		}

		if !s.observe(ctx, f, attempt, swap) {
			return
		}
		if s.settle(ctx, f, attempt, swap, StageMonitoring) {
			return
		}
	}

	s.logger.Warn("[monitor] attempt budget exhausted", map[string]string{
		"purchaseID": f.id,
		"swapID":     swapID,
	})
	s.fail(ctx, f, attempt, &Failure{
		Kind:    FailureSwapTimedOut,
		Stage:   StageMonitoring,
		Message: fmt.Sprintf("Swap timed out. Please contact support with swap ID: %s", swapID),
	})
}

// observe caches a polled snapshot. It returns false once the flow stopped
// being monitored.
func (s *service) observe(ctx context.Context, f *flow, attempt int, swap *model.Swap) bool {
	_, err := s.update(ctx, f, attempt, func(f *flow) error {
		if f.p.Step != StepSwap || !f.p.Monitoring {
			return ErrNotMonitoring
		}
		f.p.Swap = swap
		f.p.Progress = "Status: " + swap.State.Description()
		return nil
	})
	return err == nil
}

func (s *service) setProgress(ctx context.Context, f *flow, attempt int, progress string) {
	s.update(ctx, f, attempt, func(f *flow) error {
		if f.p.Step.IsTerminal() {
			return ErrInvalidTransition
		}
		f.p.Progress = progress
		return nil
	})
}
