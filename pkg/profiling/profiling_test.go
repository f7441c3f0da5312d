package profiling

import (
	"testing"

	"github.com/getmentor/mentorship-api/config"
	"github.com/getmentor/mentorship-api/pkg/tracing"
	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfileTypes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []pyroscope.ProfileType
	}{
		{"default", "", defaultProfileTypes},
		{"custom", "cpu, mutex", []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
		}},
		{"deduplicated", "cpu,CPU", []pyroscope.ProfileType{pyroscope.ProfileCPU}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProfileTypes(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProfileTypes_Invalid(t *testing.T) {
	_, err := parseProfileTypes("cpu,unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported PROFILING_SAMPLE_TYPES")
}

func TestBuildApplicationName(t *testing.T) {
	got := buildApplicationName("", tracing.Identity{
		ServiceName:       "mentorship-api",
		ServiceNamespace:  "mentorship",
		ServiceVersion:    "1.0.0",
		ServiceInstanceID: "inst-1",
		Environment:       "production",
	})
	assert.Equal(t, "mentorship-api{service_name=mentorship-api,namespace=mentorship,environment=production,service_version=1.0.0,instance=inst-1}", got)
}

func TestInitProfiler_Disabled(t *testing.T) {
	stop, err := InitProfiler(config.ProfilingConfig{}, tracing.Identity{})
	require.NoError(t, err)
	stop()
}

func TestInitProfiler_EnabledWithoutEndpoint(t *testing.T) {
	_, err := InitProfiler(config.ProfilingConfig{Enabled: true}, tracing.Identity{})
	assert.Error(t, err)
}
