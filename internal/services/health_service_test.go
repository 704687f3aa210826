package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"studentpulse/internal/datasource"
	"studentpulse/internal/shared/testutil"
	"studentpulse/pkg/contracts"
)

type MockClientCounter struct {
	mock.Mock
}

func (m *MockClientCounter) ClientCount() int {
	return m.Called().Int(0)
}

func TestHealthService_HealthAndLiveness(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	hs := NewHealthService("1.2.3", nil, nil, logger)
	testutil.AssertLogContains(t, logs, slog.LevelInfo, "HealthService initialized")

	health := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.2.3", health.Version)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	require.NotNil(t, live.Runtime)
	assert.Contains(t, live.Runtime, "goroutines")
	assert.Contains(t, live.Runtime, "go_version")
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name          string
		status        datasource.Status
		wantStatus    string
		wantInMessage string
	}{
		{
			name:          "not loaded",
			status:        datasource.Status{},
			wantStatus:    "not_ready",
			wantInMessage: "not loaded yet",
		},
		{
			name:          "first load failed",
			status:        datasource.Status{LastError: "student data file not found"},
			wantStatus:    "not_ready",
			wantInMessage: "student data file not found",
		},
		{
			name:          "loaded",
			status:        datasource.Status{Loaded: true, Version: 3, Records: 40, LoadedAt: time.Now()},
			wantStatus:    "ready",
			wantInMessage: "version 3 with 40 records",
		},
		{
			name:          "reload failed keeps serving",
			status:        datasource.Status{Loaded: true, Version: 3, Records: 40, LoadedAt: time.Now(), LastError: "bad value"},
			wantStatus:    "ready",
			wantInMessage: "last reload failed: bad value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataset := &MockDataset{}
			dataset.On("Status").Return(tt.status)
			hub := &MockClientCounter{}
			hub.On("ClientCount").Return(2)

			logger, _ := testutil.NewTestLogger(t)
			hs := NewHealthService(contracts.Version, dataset, hub, logger)

			ready := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, ready.Status)

			ds, ok := ready.Services["dataset"].(ServiceHealth)
			require.True(t, ok)
			assert.Contains(t, ds.Message, tt.wantInMessage)

			ws, ok := ready.Services["websocket"].(ServiceHealth)
			require.True(t, ok)
			assert.Equal(t, "2 clients connected", ws.Message)
		})
	}
}

func TestHealthService_Version(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService(contracts.Version, nil, nil, logger)

	info := hs.Version()
	assert.Equal(t, contracts.Version, info["version"])
	assert.Equal(t, contracts.APIVersion, info["api_version"])
	assert.NotContains(t, info, "build_time")
	assert.Contains(t, info, "start_time")
}
