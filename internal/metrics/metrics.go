package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pl974/dealchain/internal/service"
)

// Operation names used as the "operation" label.
const (
	OpRegisterMerchant = "register_merchant"
	OpTogglePause      = "toggle_pause"
	OpCreateCoupon     = "create_coupon"
	OpSetCouponActive  = "set_coupon_active"
	OpCloseExpired     = "close_expired_coupon"
	OpPurchase         = "purchase"
	OpRedeem           = "redeem"
	OpSubmitReview     = "submit_review"
	OpInitializeBadge  = "initialize_loyalty_badge"
	OpVerifiedPurchase = "verified_purchase"
)

// LedgerMetrics counts ledger operation outcomes.
type LedgerMetrics struct {
	operations *prometheus.CounterVec
}

var (
	ledgerMetricsOnce sync.Once
	ledgerRegistry    *LedgerMetrics
)

// Ledger returns the registry tracking ledger operation outcomes.
func Ledger() *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "dealchain",
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Count of ledger operations segmented by operation and result code.",
			}, []string{"operation", "code"}),
		}
		prometheus.MustRegister(ledgerRegistry.operations)
	})
	return ledgerRegistry
}

// RecordOperation counts one outcome of op. Successful calls are labelled
// "ok", coded ledger errors by their code and anything else "Internal".
func (m *LedgerMetrics) RecordOperation(op string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code := service.CodeOf(err); code != "" {
		return code
	}
	return "Internal"
}
