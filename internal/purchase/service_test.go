package purchase

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/dwarvesf/btc-strk-purchase/internal/gateway"
	"github.com/dwarvesf/btc-strk-purchase/internal/model"
	"github.com/dwarvesf/btc-strk-purchase/internal/monitoring"
	"github.com/dwarvesf/btc-strk-purchase/internal/session"
	"github.com/dwarvesf/btc-strk-purchase/internal/store"
	"github.com/dwarvesf/btc-strk-purchase/internal/types/environments"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/config"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
	"github.com/dwarvesf/btc-strk-purchase/internal/wallet"
)

const (
	profileID     = "profile-1"
	sellerAddress = "0x049d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7"
	priceSats     = int64(850000)
	swapID        = "swap-1"
	btcTxID       = "abc123"
)

var _ = Describe("Service", func() {
	var (
		ctx      context.Context
		fc       *clockwork.FakeClock
		gw       *MockGateway
		signer   *MockSigner
		sessions *MockSessionManager
		rpc      *MockBtcRpc
		attempts *MockPurchaseAttemptStore
		svc      *service
		account  *model.BitcoinAccount
		pkg      *model.SigningPackage
		quote    *model.Quote
		request  StartRequest
	)

	step := func(id string) func() Step {
		return func() Step {
			p, err := svc.Get(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			return p.Step
		}
	}

	progress := func(id string) func() string {
		return func() string {
			p, _ := svc.Get(ctx, id)
			return p.Progress
		}
	}

	givenWallet := func() {
		sessions.On("BitcoinAccount", mock.Anything, profileID).Return(account, nil)
	}

	givenBalance := func(sats int64) {
		rpc.On("Balance", mock.Anything, account.PaymentAddress).
			Return(model.NewWeb3BigInt(big.NewInt(sats), 8), nil)
	}

	givenQuote := func(q *model.Quote) {
		gw.On("GetQuote", mock.Anything, gateway.QuoteRequest{
			AmountSats:         priceSats,
			DestinationAddress: sellerAddress,
			ExactIn:            true,
		}).Return(q, nil).Once()
	}

	// confirmed starts a purchase and leaves it in the confirm step.
	confirmed := func() string {
		givenWallet()
		givenBalance(1_000_000)
		givenQuote(quote)

		p, err := svc.Start(ctx, request)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Step).To(Equal(StepConfirm))
		return p.ID
	}

	givenSignedAndBroadcast := func() {
		gw.On("GetPsbtForSigning", mock.Anything, swapID, account.PaymentAddress, account.PaymentPublicKey).Return(pkg, nil).Once()
		signer.On("SignPsbt", mock.Anything, mock.Anything).Return("signed-psbt", nil).Once()
		gw.On("SubmitSignedPsbt", mock.Anything, swapID, "signed-psbt").Return(btcTxID, nil).Once()
	}

	givenConfirmations := func() {
		gw.On("WaitForBitcoinConfirmation", mock.Anything, swapID, mock.Anything).Run(func(args mock.Arguments) {
			onProgress := args.Get(2).(func(model.ConfirmationProgress))
			onProgress(model.ConfirmationProgress{TxID: btcTxID, Confirmations: 1, TargetConfirmations: 3})
			onProgress(model.ConfirmationProgress{TxID: btcTxID, Confirmations: 3, TargetConfirmations: 3})
		}).Return(true, nil).Once()
	}

	BeforeEach(func() {
		ctx = context.Background()
		fc = clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
		gw = &MockGateway{}
		signer = &MockSigner{}
		sessions = &MockSessionManager{}
		rpc = &MockBtcRpc{}
		attempts = &MockPurchaseAttemptStore{}

		account = &model.BitcoinAccount{
			PaymentAddress:   "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
			PaymentPublicKey: "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
		}
		pkg = &model.SigningPackage{SwapID: swapID, Psbt: "cHNidP8=", SignInputs: []int{0}}
		quote = &model.Quote{ID: swapID, FromAmountSats: priceSats, TotalInputSats: 852000, FeeSats: 2000, ExpiresAt: fc.Now().Add(10 * time.Minute)}
		request = StartRequest{ProfileID: profileID, AssetID: "sword-42", SellerAddress: sellerAddress, PriceSats: priceSats}

		attempts.On("Upsert", mock.Anything, mock.Anything).Return(nil).Maybe()
		sessions.On("Touch", mock.Anything, profileID, model.ChainBitcoin, session.ActivityExplicit).Return(&session.View{}, nil).Maybe()

		cfg := &config.AppConfig{Purchase: config.PurchaseConfig{
			CompletionTimeout:  60 * time.Second,
			MonitorInterval:    30 * time.Second,
			MonitorMaxAttempts: 20,
		}}
		svc = New(nil, &store.Store{PurchaseAttempt: attempts}, gw, signer, sessions, rpc, cfg,
			logger.New(environments.Test), monitoring.NewPurchaseMetrics(), fc).(*service)
	})

	AfterEach(func() {
		svc.Shutdown()
	})

	Describe("transitions", func() {
		It("only allows the documented step graph", func() {
			Expect(canTransition(StepQuote, StepConfirm)).To(BeTrue())
			Expect(canTransition(StepQuote, StepSwap)).To(BeFalse())
			Expect(canTransition(StepConfirm, StepSwap)).To(BeTrue())
			Expect(canTransition(StepConfirm, StepComplete)).To(BeFalse())
			Expect(canTransition(StepSwap, StepCancelled)).To(BeFalse())
			Expect(canTransition(StepError, StepQuote)).To(BeTrue())
			Expect(canTransition(StepError, StepConfirm)).To(BeFalse())
			Expect(canTransition(StepComplete, StepError)).To(BeFalse())
			Expect(canTransition(StepCancelled, StepQuote)).To(BeFalse())
		})
	})

	Describe("#Start", func() {
		It("rejects an invalid request", func() {
			request.PriceSats = 0
			_, err := svc.Start(ctx, request)
			Expect(errors.Is(err, ErrInvalidRequest)).To(BeTrue())
		})

		It("moves to confirm with the quote addressed to the seller", func() {
			id := confirmed()

			p, err := svc.Get(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Quote.ID).To(Equal(swapID))
			Expect(p.Attempt).To(Equal(1))
			attempts.AssertCalled(GinkgoT(), "Upsert", mock.Anything, mock.MatchedBy(func(a *model.PurchaseAttempt) bool {
				return a.PurchaseID == id && a.Step == string(StepConfirm) && a.SwapID == swapID
			}))
		})

		It("fails without a bitcoin session", func() {
			sessions.On("BitcoinAccount", mock.Anything, profileID).Return(nil, session.ErrSessionNotFound)

			p, err := svc.Start(ctx, request)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Step).To(Equal(StepError))
			Expect(p.Failure.Kind).To(Equal(FailureWalletNotConnected))
			gw.AssertNotCalled(GinkgoT(), "GetQuote", mock.Anything, mock.Anything)
		})

		It("asks to reconnect when the session expired", func() {
			sessions.On("BitcoinAccount", mock.Anything, profileID).Return(nil, session.ErrSessionExpired)

			p, _ := svc.Start(ctx, request)
			Expect(p.Failure.Kind).To(Equal(FailureWalletNotConnected))
			Expect(p.Failure.Message).To(Equal("Session expired. Please reconnect your wallet."))
		})

		It("checks the cached balance before quoting", func() {
			givenWallet()
			givenBalance(100_000)

			p, _ := svc.Start(ctx, request)
			Expect(p.Step).To(Equal(StepError))
			Expect(p.Failure.Kind).To(Equal(FailureInsufficientBalance))
			Expect(p.Failure.Message).To(ContainSubstring("0.0085"))
			gw.AssertNotCalled(GinkgoT(), "GetQuote", mock.Anything, mock.Anything)
		})

		It("skips the balance check when the balance cannot be read", func() {
			givenWallet()
			rpc.On("Balance", mock.Anything, account.PaymentAddress).Return(nil, errors.New("esplora down"))
			givenQuote(quote)

			p, _ := svc.Start(ctx, request)
			Expect(p.Step).To(Equal(StepConfirm))
		})

		It("maps gateway refusals", func() {
			givenWallet()
			givenBalance(1_000_000)
			gw.On("GetQuote", mock.Anything, mock.Anything).
				Return(nil, &gateway.Error{Code: gateway.CodeOutOfLimits, Message: "amount 850000 sats outside [1000, 500000]"})

			p, _ := svc.Start(ctx, request)
			Expect(p.Step).To(Equal(StepError))
			Expect(p.Failure.Kind).To(Equal(FailureOutOfLimits))
			Expect(p.Failure.Message).NotTo(ContainSubstring("out_of_limits"))
		})

		It("reports an unreachable swap network as quote unavailable", func() {
			givenWallet()
			givenBalance(1_000_000)
			gw.On("GetQuote", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))

			p, _ := svc.Start(ctx, request)
			Expect(p.Failure.Kind).To(Equal(FailureQuoteUnavailable))
			Expect(p.Failure.Message).NotTo(ContainSubstring("dial tcp"))
		})
	})

	Describe("#Confirm", func() {
		It("completes and notifies with the bitcoin txid", func() {
			completed := make(chan string, 1)
			svc.OnSuccess(func(p Purchase, txID string) { completed <- txID })

			id := confirmed()
			givenSignedAndBroadcast()
			givenConfirmations()
			gw.On("WaitForSwapCompletion", mock.Anything, swapID, 60*time.Second).Return(true).Once()

			p, err := svc.Confirm(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Step).To(Equal(StepSwap))

			Eventually(completed).Should(Receive(Equal(btcTxID)))
			final, _ := svc.Get(ctx, id)
			Expect(final.Step).To(Equal(StepComplete))
			Expect(final.BtcTxID).To(Equal(btcTxID))
			Expect(final.Confirmations.Confirmations).To(Equal(3))
			Expect(final.CompletedAt).NotTo(BeNil())
			sessions.AssertCalled(GinkgoT(), "Touch", mock.Anything, profileID, model.ChainBitcoin, session.ActivityExplicit)
			gw.AssertNotCalled(GinkgoT(), "GetSwapStatus", mock.Anything, mock.Anything)
		})

		It("completes from a fronted status after the completion wait times out", func() {
			id := confirmed()
			givenSignedAndBroadcast()
			givenConfirmations()
			gw.On("WaitForSwapCompletion", mock.Anything, swapID, 60*time.Second).Return(false).Once()
			gw.On("GetSwapStatus", mock.Anything, swapID).Return(&model.Swap{ID: swapID, State: model.SwapStateFronted}, nil).Once()

			_, err := svc.Confirm(ctx, id)
			Expect(err).NotTo(HaveOccurred())

			Eventually(step(id)).Should(Equal(StepComplete))
			p, _ := svc.Get(ctx, id)
			Expect(p.Monitoring).To(BeFalse())
			gw.AssertNumberOfCalls(GinkgoT(), "GetSwapStatus", 1)
		})

		It("fails on a declined status after the completion wait times out", func() {
			id := confirmed()
			givenSignedAndBroadcast()
			givenConfirmations()
			gw.On("WaitForSwapCompletion", mock.Anything, swapID, mock.Anything).Return(false).Once()
			gw.On("GetSwapStatus", mock.Anything, swapID).Return(&model.Swap{ID: swapID, State: model.SwapStateDeclined}, nil).Once()

			svc.Confirm(ctx, id)

			Eventually(step(id)).Should(Equal(StepError))
			p, _ := svc.Get(ctx, id)
			Expect(p.Failure.Kind).To(Equal(FailureSwapDeclined))
			Expect(p.Failure.Stage).To(Equal(StageSwapCompletion))
			Expect(p.Failure.Message).To(ContainSubstring(swapID))
		})

		It("stops at a rejected broadcast", func() {
			id := confirmed()
			gw.On("GetPsbtForSigning", mock.Anything, swapID, mock.Anything, mock.Anything).Return(pkg, nil).Once()
			signer.On("SignPsbt", mock.Anything, mock.Anything).Return("signed-psbt", nil).Once()
			gw.On("SubmitSignedPsbt", mock.Anything, swapID, "signed-psbt").Return("", gateway.ErrBroadcastRejected).Once()

			svc.Confirm(ctx, id)

			Eventually(step(id)).Should(Equal(StepError))
			p, _ := svc.Get(ctx, id)
			Expect(p.Failure.Kind).To(Equal(FailureBroadcastRejected))
			Expect(p.Failure.Stage).To(Equal(StageBroadcast))
			Expect(p.Failure.Message).To(ContainSubstring("broadcast"))
			gw.AssertNotCalled(GinkgoT(), "WaitForBitcoinConfirmation", mock.Anything, mock.Anything, mock.Anything)
		})

		It("stops when the wallet cancels signing", func() {
			id := confirmed()
			gw.On("GetPsbtForSigning", mock.Anything, swapID, mock.Anything, mock.Anything).Return(pkg, nil).Once()
			signer.On("SignPsbt", mock.Anything, mock.Anything).Return("", wallet.ErrSigningCancelled).Once()

			svc.Confirm(ctx, id)

			Eventually(step(id)).Should(Equal(StepError))
			p, _ := svc.Get(ctx, id)
			Expect(p.Failure.Kind).To(Equal(FailureSigningCancelled))
			Expect(p.Failure.Message).To(ContainSubstring("cancelled"))
			gw.AssertNotCalled(GinkgoT(), "SubmitSignedPsbt", mock.Anything, mock.Anything, mock.Anything)
		})

		It("fails when the bitcoin transaction does not confirm", func() {
			id := confirmed()
			givenSignedAndBroadcast()
			gw.On("WaitForBitcoinConfirmation", mock.Anything, swapID, mock.Anything).Return(false, nil).Once()

			svc.Confirm(ctx, id)

			Eventually(step(id)).Should(Equal(StepError))
			p, _ := svc.Get(ctx, id)
			Expect(p.Failure.Message).To(Equal("Bitcoin transaction failed to confirm"))
			Expect(p.Failure.Stage).To(Equal(StageBitcoinConfirmation))
			gw.AssertNotCalled(GinkgoT(), "WaitForSwapCompletion", mock.Anything, mock.Anything, mock.Anything)
		})

		It("rejects an expired quote without contacting the gateway", func() {
			id := confirmed()
			fc.Advance(10*time.Minute + time.Second)

			p, err := svc.Confirm(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Step).To(Equal(StepError))
			Expect(p.Failure.Kind).To(Equal(FailureQuoteExpired))
			gw.AssertNotCalled(GinkgoT(), "GetPsbtForSigning", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})

		It("refuses to confirm twice", func() {
			id := confirmed()
			gw.On("GetPsbtForSigning", mock.Anything, swapID, mock.Anything, mock.Anything).Return(nil, gateway.ErrInvalidSwapState).Maybe()

			_, err := svc.Confirm(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Confirm(ctx, id)
			Expect(errors.Is(err, ErrInvalidTransition)).To(BeTrue())
		})

		It("reports an unknown purchase", func() {
			_, err := svc.Confirm(ctx, "missing")
			Expect(err).To(MatchError(ErrPurchaseNotFound))
		})
	})

	Describe("background monitoring", func() {
		var id string

		BeforeEach(func() {
			id = confirmed()
			givenSignedAndBroadcast()
			givenConfirmations()
			gw.On("WaitForSwapCompletion", mock.Anything, swapID, 60*time.Second).Return(false).Once()
			// the explicit check after the completion wait
			gw.On("GetSwapStatus", mock.Anything, swapID).Return(&model.Swap{ID: swapID, State: model.SwapStateBroadcasted}, nil).Once()
		})

		startMonitoring := func() {
			_, err := svc.Confirm(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Eventually(progress(id)).Should(Equal("Swap is taking longer than expected. Swap ID: " + swapID))
		}

		poll := func() {
			fc.BlockUntil(1)
			fc.Advance(30 * time.Second)
		}

		It("times out after exactly twenty polls without claiming success", func() {
			gw.On("GetSwapStatus", mock.Anything, swapID).Return(&model.Swap{ID: swapID, State: model.SwapStateBtcTxConfirmed}, nil).Times(20)
			startMonitoring()

			for i := 0; i < 19; i++ {
				poll()
			}
			Eventually(progress(id)).Should(Equal("Status: Bitcoin transaction confirmed"))
			Expect(step(id)()).To(Equal(StepSwap))

			poll()

			Eventually(step(id)).Should(Equal(StepError))
			p, _ := svc.Get(ctx, id)
			Expect(p.Failure.Kind).To(Equal(FailureSwapTimedOut))
			Expect(p.Failure.Message).To(Equal("Swap timed out. Please contact support with swap ID: " + swapID))
			Expect(p.CompletedAt).To(BeNil())
			Expect(p.Monitoring).To(BeFalse())
			gw.AssertNumberOfCalls(GinkgoT(), "GetSwapStatus", 21)
		})

		It("completes when a poll reports delivery", func() {
			gw.On("GetSwapStatus", mock.Anything, swapID).Return(&model.Swap{ID: swapID, State: model.SwapStateBroadcasted}, nil).Once()
			gw.On("GetSwapStatus", mock.Anything, swapID).Return(&model.Swap{ID: swapID, State: model.SwapStateClaimClaimed, DestinationTxHash: "0xdead"}, nil).Once()
			startMonitoring()

			poll()
			Eventually(progress(id)).Should(Equal("Status: Bitcoin transaction broadcasted"))
			poll()

			Eventually(step(id)).Should(Equal(StepComplete))
			p, _ := svc.Get(ctx, id)
			Expect(p.Swap.DestinationTxHash).To(Equal("0xdead"))
		})

		It("surfaces a failed poll before moving to error", func() {
			gw.On("GetSwapStatus", mock.Anything, swapID).Return(nil, errors.New("connection reset")).Once()
			startMonitoring()

			poll()

			Eventually(step(id)).Should(Equal(StepError))
			p, _ := svc.Get(ctx, id)
			Expect(p.Failure.Kind).To(Equal(FailureSwapFailed))
			Expect(p.Failure.Stage).To(Equal(StageMonitoring))
			Expect(p.Failure.Message).To(ContainSubstring(swapID))
		})

		It("keeps monitoring after the buyer dismisses the flow", func() {
			gw.On("GetSwapStatus", mock.Anything, swapID).Return(&model.Swap{ID: swapID, State: model.SwapStateFronted}, nil).Once()
			startMonitoring()

			p, err := svc.Cancel(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Dismissed).To(BeTrue())
			Expect(p.Step).To(Equal(StepSwap))

			poll()
			Eventually(step(id)).Should(Equal(StepComplete))
		})

		It("stops visibly on request", func() {
			startMonitoring()

			p, err := svc.StopMonitoring(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Step).To(Equal(StepError))
			Expect(p.Failure.Kind).To(Equal(FailureMonitoringStopped))
			Expect(p.Failure.Message).To(Equal("Monitoring stopped. Swap ID: " + swapID))

			_, err = svc.StopMonitoring(ctx, id)
			Expect(err).To(MatchError(ErrNotMonitoring))
		})
	})

	Describe("#Cancel", func() {
		It("cancels from confirm without side effects", func() {
			id := confirmed()

			p, err := svc.Cancel(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Step).To(Equal(StepCancelled))

			_, err = svc.Cancel(ctx, id)
			Expect(errors.Is(err, ErrInvalidTransition)).To(BeTrue())
			_, err = svc.Retry(ctx, id)
			Expect(errors.Is(err, ErrInvalidTransition)).To(BeTrue())
		})

		It("aborts a pending signature", func() {
			id := confirmed()
			gw.On("GetPsbtForSigning", mock.Anything, swapID, mock.Anything, mock.Anything).Return(pkg, nil).Once()
			signer.On("SignPsbt", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).Return("", wallet.ErrSigningCancelled).Once()

			svc.Confirm(ctx, id)
			Eventually(progress(id)).Should(Equal("Please sign the transaction in your wallet..."))

			p, err := svc.Cancel(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Step).To(Equal(StepError))
			Expect(p.Failure.Kind).To(Equal(FailureSigningCancelled))
			Expect(p.Failure.Stage).To(Equal(StageSignPsbt))

			Consistently(step(id)).Should(Equal(StepError))
			gw.AssertNotCalled(GinkgoT(), "SubmitSignedPsbt", mock.Anything, mock.Anything, mock.Anything)
		})

		It("only dismisses once the transaction is broadcast", func() {
			release := make(chan struct{})
			id := confirmed()
			givenSignedAndBroadcast()
			gw.On("WaitForBitcoinConfirmation", mock.Anything, swapID, mock.Anything).Run(func(args mock.Arguments) {
				<-release
			}).Return(true, nil).Once()
			gw.On("WaitForSwapCompletion", mock.Anything, swapID, mock.Anything).Return(true).Once()

			svc.Confirm(ctx, id)
			Eventually(progress(id)).Should(Equal("Waiting for Bitcoin confirmations..."))

			p, err := svc.Cancel(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Step).To(Equal(StepSwap))
			Expect(p.Dismissed).To(BeTrue())

			close(release)
			Eventually(step(id)).Should(Equal(StepComplete))
		})
	})

	Describe("#Retry", func() {
		It("restarts from a fresh quote", func() {
			id := confirmed()
			fc.Advance(11 * time.Minute)
			p, _ := svc.Confirm(ctx, id)
			Expect(p.Step).To(Equal(StepError))

			fresh := &model.Quote{ID: "swap-2", FromAmountSats: priceSats, ExpiresAt: fc.Now().Add(10 * time.Minute)}
			givenQuote(fresh)

			p, err := svc.Retry(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Step).To(Equal(StepConfirm))
			Expect(p.Attempt).To(Equal(2))
			Expect(p.Quote.ID).To(Equal("swap-2"))
			Expect(p.Failure).To(BeNil())
		})

		It("is only allowed from error", func() {
			id := confirmed()
			_, err := svc.Retry(ctx, id)
			Expect(errors.Is(err, ErrInvalidTransition)).To(BeTrue())
		})
	})

	Describe("#Get", func() {
		It("falls back to the recorded attempt", func() {
			completedAt := fc.Now()
			attempts.On("GetByPurchaseID", mock.Anything, "old").Return(&model.PurchaseAttempt{
				PurchaseID:  "old",
				ProfileID:   profileID,
				Step:        string(StepComplete),
				Attempt:     1,
				SwapID:      "swap-0",
				BtcTxID:     btcTxID,
				CompletedAt: &completedAt,
			}, nil).Once()

			p, err := svc.Get(ctx, "old")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Step).To(Equal(StepComplete))
			Expect(p.Swap.ID).To(Equal("swap-0"))
		})

		It("serves reads while the swap reports progress", func() {
			const target = 200
			id := confirmed()
			givenSignedAndBroadcast()
			gw.On("WaitForBitcoinConfirmation", mock.Anything, swapID, mock.Anything).Run(func(args mock.Arguments) {
				onProgress := args.Get(2).(func(model.ConfirmationProgress))
				for i := 1; i <= target; i++ {
					onProgress(model.ConfirmationProgress{TxID: btcTxID, Confirmations: i, TargetConfirmations: target})
				}
			}).Return(true, nil).Once()
			gw.On("WaitForSwapCompletion", mock.Anything, swapID, 60*time.Second).Return(true).Once()
			attempts.On("ListByProfile", mock.Anything, profileID, listLimit).Return([]model.PurchaseAttempt{}, nil).Maybe()

			done := make(chan struct{})
			var readers sync.WaitGroup
			read := func(load func() []Purchase) {
				defer GinkgoRecover()
				defer readers.Done()
				for {
					for _, p := range load() {
						if p.Confirmations != nil && strings.HasPrefix(p.Progress, "Bitcoin confirmations") {
							Expect(p.Progress).To(Equal(fmt.Sprintf("Bitcoin confirmations: %d/%d",
								p.Confirmations.Confirmations, p.Confirmations.TargetConfirmations)))
						}
					}
					select {
					case <-done:
						return
					default:
					}
				}
			}

			readers.Add(2)
			go read(func() []Purchase {
				p, err := svc.Get(ctx, id)
				Expect(err).NotTo(HaveOccurred())
				return []Purchase{*p}
			})
			go read(func() []Purchase {
				list, err := svc.List(ctx, profileID)
				Expect(err).NotTo(HaveOccurred())
				return list
			})

			_, err := svc.Confirm(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Eventually(step(id)).Should(Equal(StepComplete))
			close(done)
			readers.Wait()

			final, _ := svc.Get(ctx, id)
			Expect(final.Confirmations.Confirmations).To(Equal(target))
		})

		It("reports a purchase nobody recorded", func() {
			attempts.On("GetByPurchaseID", mock.Anything, "nope").Return(nil, gorm.ErrRecordNotFound).Once()

			_, err := svc.Get(ctx, "nope")
			Expect(err).To(MatchError(ErrPurchaseNotFound))
		})
	})

	Describe("#List", func() {
		It("merges live flows with history", func() {
			id := confirmed()
			attempts.On("ListByProfile", mock.Anything, profileID, listLimit).Return([]model.PurchaseAttempt{
				{PurchaseID: id, ProfileID: profileID, Step: string(StepQuote)},
				{PurchaseID: "old", ProfileID: profileID, Step: string(StepComplete)},
			}, nil).Once()

			list, err := svc.List(ctx, profileID)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].ID).To(Equal(id))
			Expect(list[0].Step).To(Equal(StepConfirm))
		})
	})
})
