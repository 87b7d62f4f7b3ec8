package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCatalogMetrics_RecordOps(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := newCatalogMetricsWithRegisterer(registry)

	m.RecordProductOp("create", nil)
	m.RecordProductOp("create", errors.New("boom"))
	m.RecordOrderOp("update", nil)
	m.RecordOrderTotal(113.50)
	m.RecordOutboxEvent()
	m.RecordOutboxEvent()

	if got := testutil.ToFloat64(m.productOps.WithLabelValues("create", "ok")); got != 1 {
		t.Fatalf("expected 1 ok product create, got %v", got)
	}
	if got := testutil.ToFloat64(m.productOps.WithLabelValues("create", "error")); got != 1 {
		t.Fatalf("expected 1 error product create, got %v", got)
	}
	if got := testutil.ToFloat64(m.orderOps.WithLabelValues("update", "ok")); got != 1 {
		t.Fatalf("expected 1 ok order update, got %v", got)
	}
	if got := testutil.ToFloat64(m.outboxEvents); got != 2 {
		t.Fatalf("expected 2 outbox events, got %v", got)
	}
}

func TestCatalogMetrics_DoubleRegistrationReusesCollectors(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	first := newCatalogMetricsWithRegisterer(registry)
	second := newCatalogMetricsWithRegisterer(registry)

	first.RecordOutboxEvent()
	second.RecordOutboxEvent()

	if got := testutil.ToFloat64(first.outboxEvents); got != 2 {
		t.Fatalf("expected shared counter with value 2, got %v", got)
	}
}

func TestCatalogMetrics_NilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var m *CatalogMetrics
	m.RecordProductOp("create", nil)
	m.RecordOrderOp("delete", errors.New("boom"))
	m.RecordOrderTotal(1)
	m.RecordOutboxEvent()
}
