package training

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlot(t *testing.T) PlotData {
	t.Helper()
	plot, err := SchedulePlot(NewWarmupCosineScheduler(0.1, 100, 0.01, 10), "test-model", 100, 25)
	require.NoError(t, err)
	return plot
}

func newTestService(url string, attempts int) *PlottingService {
	return NewPlottingService(PlottingServiceConfig{
		BaseURL:       url,
		Timeout:       5 * time.Second,
		RetryAttempts: attempts,
		RetryDelay:    time.Millisecond,
	})
}

func TestSendPlotData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/plot", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var plot PlotData
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&plot)) {
			return
		}
		assert.Equal(t, LearningRateSchedule, plot.PlotType)
		assert.Len(t, plot.Series[0].Data, 5)

		json.NewEncoder(w).Encode(PlottingResponse{Success: true, PlotID: "plot-1"})
	}))
	defer server.Close()

	resp, err := newTestService(server.URL, 1).SendPlotData(context.Background(), testPlot(t))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "plot-1", resp.PlotID)
}

func TestSendPlotDataServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(PlottingResponse{Message: "bad plot", ErrorCode: "INVALID"})
	}))
	defer server.Close()

	resp, err := newTestService(server.URL, 1).SendPlotData(context.Background(), testPlot(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400: bad plot")
	require.NotNil(t, resp)
	assert.Equal(t, "INVALID", resp.ErrorCode)
}

func TestSendPlotDataWithRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(PlottingResponse{Message: "starting"})
			return
		}
		json.NewEncoder(w).Encode(PlottingResponse{Success: true})
	}))
	defer server.Close()

	resp, err := newTestService(server.URL, 3).SendPlotDataWithRetry(context.Background(), testPlot(t))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendPlotDataWithRetryGivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"down"}`))
	}))
	defer server.Close()

	_, err := newTestService(server.URL, 2).SendPlotDataWithRetry(context.Background(), testPlot(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestCheckHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.NoError(t, newTestService(server.URL, 1).CheckHealth(context.Background()))

	unhealthy := newTestService(server.URL+"/missing", 1)
	assert.ErrorContains(t, unhealthy.CheckHealth(context.Background()), "status 404")
}

func TestDefaultPlottingServiceConfig(t *testing.T) {
	config := DefaultPlottingServiceConfig()
	assert.Equal(t, "http://localhost:8080", config.BaseURL)
	assert.Equal(t, 3, config.RetryAttempts)
}
