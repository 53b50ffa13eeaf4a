package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/wdpkr/zillowdata/internal/dataset"
	"github.com/wdpkr/zillowdata/pkg/contracts"
)

type mockHub struct {
	mock.Mock
}

func (m *mockHub) ClientCount() int {
	return m.Called().Int(0)
}

func TestHealthCheckIsAlwaysOK(t *testing.T) {
	hs := NewHealthService(failingStore(), nil, testLogger())

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, contracts.Version, status.Version)
	assert.Contains(t, status.Services, "datasets")
}

func TestReadinessCheck(t *testing.T) {
	hub := &mockHub{}
	hub.On("ClientCount").Return(2)

	t.Run("loaded", func(t *testing.T) {
		store := &mockStore{}
		store.On("Stats").Return(dataset.Stats{
			Loaded:       true,
			Attempts:     1,
			LoadedAt:     time.Now(),
			LoadDuration: 1500 * time.Millisecond,
			Datasets:     make([]dataset.DatasetStats, 8),
		})

		status := NewHealthService(store, hub, testLogger()).ReadinessCheck(context.Background())
		assert.Equal(t, "ready", status.Status)

		ds := status.Services["datasets"].(ServiceHealth)
		assert.Equal(t, "8 datasets loaded in 1.5s", ds.Message)
		ws := status.Services["websocket"].(ServiceHealth)
		assert.Equal(t, "2 clients connected", ws.Message)
	})

	t.Run("failed", func(t *testing.T) {
		status := NewHealthService(failingStore(), hub, testLogger()).ReadinessCheck(context.Background())
		assert.Equal(t, "not_ready", status.Status)
		ds := status.Services["datasets"].(ServiceHealth)
		assert.Contains(t, ds.Message, "connection refused")
	})

	t.Run("not started", func(t *testing.T) {
		store := &mockStore{}
		store.On("Stats").Return(dataset.Stats{})
		status := NewHealthService(store, nil, testLogger()).ReadinessCheck(context.Background())
		assert.Equal(t, "not_ready", status.Status)
		assert.Equal(t, "datasets not loaded yet", status.Services["datasets"].(ServiceHealth).Message)
	})
}

func TestLivenessAndVersion(t *testing.T) {
	hs := NewHealthService(&mockStore{}, nil, testLogger())

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	v := hs.Version()
	assert.Equal(t, contracts.Version, v.Version)
	assert.Equal(t, contracts.APIVersion, v.APIVersion)
	assert.NotEmpty(t, v.StartTime)
}
