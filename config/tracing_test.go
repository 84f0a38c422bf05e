package config

import (
	"testing"

	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOTLPEndpoint(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "http://collector:4318", want: "http://collector:4318/v1/traces"},
		{raw: "https://otel.example.com/custom/traces", want: "https://otel.example.com/custom/traces"},
		{raw: " collector:4318 ", want: "http://collector:4318/v1/traces"},
		{raw: "", wantErr: true},
		{raw: "grpc://collector:4317", wantErr: true},
		{raw: "collector:4318/v1/traces", wantErr: true},
		{raw: "http:///nohost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := normalizeOTLPEndpoint(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSamplerRatioFromEnv(t *testing.T) {
	t.Setenv("OTEL_TRACES_SAMPLER_RATIO", "")
	ratio, err := samplerRatioFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 1.0, ratio)

	t.Setenv("OTEL_TRACES_SAMPLER_RATIO", "0.25")
	ratio, err = samplerRatioFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 0.25, ratio)

	for _, bad := range []string{"1.5", "-0.1", "half"} {
		t.Setenv("OTEL_TRACES_SAMPLER_RATIO", bad)
		_, err = samplerRatioFromEnv()
		assert.Error(t, err, bad)
	}
}

func TestSetupTracing_DisabledIsNoop(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "false")

	shutdown, err := SetupTracing(log.NewLoggerWithJSONOutput(), JoinPageServiceName)

	assert.NoError(t, err)
	assert.Nil(t, shutdown)
}
