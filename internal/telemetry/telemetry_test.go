package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestSetup_None(t *testing.T) {
	shutdown, err := Setup(context.Background(), Options{Exporter: ExporterNone})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	shutdown, err = Setup(context.Background(), Options{})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_UnknownExporter(t *testing.T) {
	_, err := Setup(context.Background(), Options{Exporter: "zipkin"})
	require.ErrorContains(t, err, "unknown telemetry exporter")
}

func TestSetup_Stdout(t *testing.T) {
	t.Cleanup(func() {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
	})

	var buf bytes.Buffer
	ctx := context.Background()
	shutdown, err := Setup(ctx, Options{Exporter: ExporterStdout, ServiceName: "famcoin-test", Writer: &buf})
	require.NoError(t, err)

	_, span := otel.Tracer("telemetry-test").Start(ctx, "economy.earn")
	span.End()

	counter, err := otel.Meter("telemetry-test").Int64Counter("famcoin.operations")
	require.NoError(t, err)
	counter.Add(ctx, 1)

	require.NoError(t, shutdown(ctx))
	require.Contains(t, buf.String(), "economy.earn")
	require.Contains(t, buf.String(), "famcoin-test")
	require.Contains(t, buf.String(), "famcoin.operations")
}
