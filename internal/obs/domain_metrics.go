package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersCreatedTotal counts orders committed at checkout.
	OrdersCreatedTotal prometheus.Counter
	// OrderPlaceholdersTotal counts order items snapshotted without product data.
	OrderPlaceholdersTotal prometheus.Counter
	// OrderStatusChangesTotal counts admin status transitions by target status.
	OrderStatusChangesTotal *prometheus.CounterVec
	// LoyaltyEvaluationsTotal counts reward evaluations by outcome.
	LoyaltyEvaluationsTotal *prometheus.CounterVec
	// NotifyEmailsTotal counts outbound notification emails by topic and result.
	NotifyEmailsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Count of orders committed at checkout.",
		})
		OrderPlaceholdersTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_placeholder_items_total",
			Help:      "Count of order items snapshotted with a missing product.",
		})
		OrderStatusChangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_changes_total",
			Help:      "Count of admin order status transitions by target status.",
		}, []string{"status"})
		LoyaltyEvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loyalty_evaluations_total",
			Help:      "Count of loyalty reward evaluations by outcome.",
		}, []string{"outcome"})
		NotifyEmailsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_emails_total",
			Help:      "Count of outbound notification emails by topic and result.",
		}, []string{"topic", "result"})

		mustRegisterCollector(reg, OrdersCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrdersCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, OrderPlaceholdersTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrderPlaceholdersTotal = v
			}
		})
		mustRegisterCollector(reg, OrderStatusChangesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderStatusChangesTotal = v
			}
		})
		mustRegisterCollector(reg, LoyaltyEvaluationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				LoyaltyEvaluationsTotal = v
			}
		})
		mustRegisterCollector(reg, NotifyEmailsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				NotifyEmailsTotal = v
			}
		})
	})
}

// DomainMetrics adapts the registered collectors to the narrow interfaces the
// services accept, so packages under internal/ never import prometheus.
type DomainMetrics struct{}

// OrderCreated increments the checkout commit counter.
func (DomainMetrics) OrderCreated() {
	if OrdersCreatedTotal != nil {
		OrdersCreatedTotal.Inc()
	}
}

// PlaceholderSubstituted records items snapshotted without product data.
func (DomainMetrics) PlaceholderSubstituted(n int) {
	if OrderPlaceholdersTotal != nil {
		OrderPlaceholdersTotal.Add(float64(n))
	}
}

// OrderStatusChanged records an admin transition.
func (DomainMetrics) OrderStatusChanged(status string) {
	if OrderStatusChangesTotal != nil {
		OrderStatusChangesTotal.WithLabelValues(status).Inc()
	}
}

// LoyaltyEvaluated records a reward evaluation outcome.
func (DomainMetrics) LoyaltyEvaluated(outcome string) {
	if LoyaltyEvaluationsTotal != nil {
		LoyaltyEvaluationsTotal.WithLabelValues(outcome).Inc()
	}
}

// EmailSent records a notification email result.
func (DomainMetrics) EmailSent(topic, result string) {
	if NotifyEmailsTotal != nil {
		NotifyEmailsTotal.WithLabelValues(topic, result).Inc()
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
