package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thunderfed/gateway/internal/config"
)

func TestInitWithNoExportersIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), "gateway-test", config.TracingConfig{})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitWithStdoutExporter(t *testing.T) {
	shutdown, err := Init(context.Background(), "gateway-test", config.TracingConfig{
		Exporters: config.ExportersConfig{
			Stdout: &config.StdoutExporterConfig{Enabled: true},
		},
	})
	require.NoError(t, err)
	defer shutdown(context.Background())

	_, span := StartSpan(context.Background(), "test.span")
	span.End()
}

func TestStartSpanWorksBeforeInit(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.span")
	require.NotNil(t, ctx)
	RecordError(span, errors.New("boom"))
	span.End()
}
