package rpc_test

import (
	"context"
	"testing"

	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap-engine/rpc"
)

func TestOTelSDKPrometheusOnly(t *testing.T) {
	cfg := &rpc.OTelConfig{
		ServiceName:   "swap-engine-test",
		EnableTracing: true,
		EnableMetrics: true,
		UsePrometheus: true,
	}

	shutdown, err := rpc.NewOTelSDK(context.Background(), cfg)
	assert.NoError(t, err)
	assert.NotNil(t, cfg.PrometheusHandler)
	assert.NoError(t, shutdown(context.Background()))
}
