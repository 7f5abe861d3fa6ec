package session

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dwarvesf/btc-strk-purchase/internal/model"
)

var _ = Describe("Policy", func() {
	var (
		policy Policy
		start  time.Time
		record *model.WalletSession
	)

	BeforeEach(func() {
		policy = Policy{MaxAge: 24 * time.Hour, IdleTimeout: 2 * time.Hour, WarningWindow: 10 * time.Minute}
		start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		record = &model.WalletSession{ConnectedAt: start, LastActivity: start}
	})

	Describe("#IsExpired", func() {
		It("keeps a session sitting exactly on the idle threshold", func() {
			Expect(policy.IsExpired(record, start.Add(2*time.Hour))).To(BeFalse())
			Expect(policy.IsExpired(record, start.Add(2*time.Hour+time.Millisecond))).To(BeTrue())
		})

		It("expires on absolute age even with recent activity", func() {
			record.LastActivity = start.Add(23*time.Hour + 30*time.Minute)

			Expect(policy.IsExpired(record, start.Add(24*time.Hour))).To(BeFalse())
			Expect(policy.IsExpired(record, start.Add(24*time.Hour+time.Millisecond))).To(BeTrue())
		})
	})

	Describe("#ExpiresAt", func() {
		It("returns the idle deadline when it comes first", func() {
			Expect(policy.ExpiresAt(record)).To(Equal(start.Add(2 * time.Hour)))
		})

		It("returns the absolute deadline when it comes first", func() {
			record.LastActivity = start.Add(23 * time.Hour)
			Expect(policy.ExpiresAt(record)).To(Equal(start.Add(24 * time.Hour)))
		})
	})

	Describe("#IsExpiringSoon", func() {
		It("flags sessions inside the warning window", func() {
			Expect(policy.IsExpiringSoon(record, start.Add(time.Hour))).To(BeFalse())
			Expect(policy.IsExpiringSoon(record, start.Add(time.Hour+55*time.Minute))).To(BeTrue())
			Expect(policy.Remaining(record, start.Add(time.Hour+55*time.Minute))).To(Equal(5 * time.Minute))
		})
	})
})
