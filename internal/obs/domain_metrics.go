package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersComposedTotal counts checkout compositions by overall payment method.
	OrdersComposedTotal *prometheus.CounterVec
	// InstallmentsGeneratedTotal counts installment rows produced by checkout.
	InstallmentsGeneratedTotal prometheus.Counter
	// InstallmentPaymentsTotal counts recorded installment payments by resulting order status.
	InstallmentPaymentsTotal *prometheus.CounterVec
	// OverdueFlaggedTotal counts installments flagged overdue by the scanner.
	OverdueFlaggedTotal prometheus.Counter
	// NotificationDeliveriesTotal tracks notification fan-out outcomes by channel.
	NotificationDeliveriesTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersComposedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_composed_total",
			Help:      "Count of orders composed at checkout by overall payment method.",
		}, []string{"method"})
		InstallmentsGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installments_generated_total",
			Help:      "Total installment rows generated for new orders.",
		})
		InstallmentPaymentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installment_payments_total",
			Help:      "Count of recorded installment payments by resulting order status.",
		}, []string{"status"})
		OverdueFlaggedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overdue_installments_flagged_total",
			Help:      "Installments flagged overdue by the periodic scanner.",
		})
		NotificationDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_deliveries_total",
			Help:      "Notification delivery outcomes by channel.",
		}, []string{"channel", "result"})

		mustRegisterCollector(reg, OrdersComposedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersComposedTotal = v
			}
		})
		mustRegisterCollector(reg, InstallmentsGeneratedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				InstallmentsGeneratedTotal = v
			}
		})
		mustRegisterCollector(reg, InstallmentPaymentsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				InstallmentPaymentsTotal = v
			}
		})
		mustRegisterCollector(reg, OverdueFlaggedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OverdueFlaggedTotal = v
			}
		})
		mustRegisterCollector(reg, NotificationDeliveriesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				NotificationDeliveriesTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
