package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "sow-signoff/backend/services"

type metrics struct {
	decisions    metric.Int64Counter
	conflicts    metric.Int64Counter
	advanced     metric.Int64Counter
	autoAssigned metric.Int64Counter
}

func newMetrics() *metrics {
	meter := otel.Meter(meterName)
	return &metrics{
		decisions:    counter(meter, "sow.decisions.submitted", "Approval decisions recorded"),
		conflicts:    counter(meter, "sow.conflicts", "Writes rejected by a version check"),
		advanced:     counter(meter, "sow.workflow.advanced", "Workflow steps signed off"),
		autoAssigned: counter(meter, "sow.autoassign.sections", "Sections whose required approvers were replaced"),
	}
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}

func (m *metrics) add(ctx context.Context, c metric.Int64Counter, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, metric.WithAttributes(attrs...))
}
