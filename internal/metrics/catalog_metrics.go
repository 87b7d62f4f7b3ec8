package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics содержит метрики операций каталога и заказов.
type CatalogMetrics struct {
	productOps *prometheus.CounterVec
	orderOps   *prometheus.CounterVec

	orderTotal prometheus.Histogram

	outboxEvents prometheus.Counter
}

// NewCatalogMetrics создаёт метрики и регистрирует их в реестре по умолчанию.
func NewCatalogMetrics() *CatalogMetrics {
	return newCatalogMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCatalogMetricsWithRegisterer(registerer prometheus.Registerer) *CatalogMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CatalogMetrics{
		productOps: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "catalog_product_operations_total",
			Help: "Total number of product operations by type and result",
		}, []string{"op", "result"}),
		orderOps: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "catalog_order_operations_total",
			Help: "Total number of order operations by type and result",
		}, []string{"op", "result"}),
		orderTotal: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "catalog_order_total_value",
			Help:    "Distribution of computed order totals",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "catalog_outbox_events_enqueued_total",
			Help: "Total number of events enqueued into the transactional outbox",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordProductOp фиксирует результат операции над каталогом.
// Нулевой получатель допустим: метрики в тестах можно не подключать.
func (m *CatalogMetrics) RecordProductOp(op string, err error) {
	if m == nil {
		return
	}
	m.productOps.WithLabelValues(op, resultLabel(err)).Inc()
}

// RecordOrderOp фиксирует результат операции над заказами.
func (m *CatalogMetrics) RecordOrderOp(op string, err error) {
	if m == nil {
		return
	}
	m.orderOps.WithLabelValues(op, resultLabel(err)).Inc()
}

// RecordOrderTotal записывает рассчитанный итог заказа.
func (m *CatalogMetrics) RecordOrderTotal(total float64) {
	if m == nil {
		return
	}
	m.orderTotal.Observe(total)
}

// RecordOutboxEvent увеличивает счётчик событий, поставленных в outbox.
func (m *CatalogMetrics) RecordOutboxEvent() {
	if m == nil {
		return
	}
	m.outboxEvents.Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
