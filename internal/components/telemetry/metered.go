package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

// MeteredAPI forwards everything to an inner API and additionally records
// ReportCount values on an otel histogram keyed by report id.
type MeteredAPI struct {
	inner     API
	histogram otelmetric.Int64Histogram
}

// NewMeteredAPI uses the global meter provider, so call it after Setup.
func NewMeteredAPI(inner API) (MeteredAPI, error) {
	meter := otel.Meter("classeviva-tools")
	histogram, err := meter.Int64Histogram(
		"report.count",
		otelmetric.WithDescription("point-in-time counts reported through telemetry.API"),
	)
	if err != nil {
		return MeteredAPI{}, err
	}
	return MeteredAPI{inner: inner, histogram: histogram}, nil
}

func (m MeteredAPI) ReportBroken(id string, params ...any) {
	m.inner.ReportBroken(id, params...)
}

func (m MeteredAPI) ReportWarning(id string, params ...any) {
	m.inner.ReportWarning(id, params...)
}

func (m MeteredAPI) ReportDebug(msg string, params ...any) {
	m.inner.ReportDebug(msg, params...)
}

func (m MeteredAPI) ReportCount(id string, count int64) {
	m.inner.ReportCount(id, count)
	m.histogram.Record(
		context.Background(),
		count,
		otelmetric.WithAttributes(attribute.String("id", id)),
	)
}
