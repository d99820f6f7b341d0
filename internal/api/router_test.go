package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/digital-egiz/sensorhub/internal/api"
	"github.com/digital-egiz/sensorhub/internal/db/models"
	"github.com/digital-egiz/sensorhub/internal/services"
	"github.com/digital-egiz/sensorhub/internal/testutil"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupAPI wires a service provider with every external sink disabled
func setupAPI(t *testing.T) (*testutil.TestSetup, *services.ServiceProvider) {
	ts := testutil.NewTestSetup(t)
	ts.Migrate()

	ctx, cancel := context.WithCancel(context.Background())
	provider := services.NewServiceProvider(ts.Logger, ts.Config, ts.DB)
	require.NoError(t, provider.Initialize(ctx))

	router := api.NewRouter(ts.Config, ts.Logger, ts.DB, provider)
	router.SetupRoutes()
	ts.Router = router.GetEngine()

	t.Cleanup(func() {
		_ = provider.Shutdown()
		cancel()
		ts.Cleanup()
	})
	return ts, provider
}

func TestHealth(t *testing.T) {
	ts, _ := setupAPI(t)

	resp := ts.ExecuteRequest("GET", "/health", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var response map[string]interface{}
	ts.ParseResponse(resp, &response)
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "ok", response["database"])
	assert.NotNil(t, response["simulator"])
}

func TestSnapshotRoutes(t *testing.T) {
	ts, _ := setupAPI(t)

	t.Run("Should return a device snapshot", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/api/v1/snapshot", nil, nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var snapshot map[string]interface{}
		ts.ParseResponse(resp, &snapshot)
		assert.True(t, strings.HasPrefix(snapshot["deviceId"].(string), "HAWK-"))
		assert.Len(t, snapshot["tempC"], 24)
	})

	t.Run("Should be deterministic for a seed", func(t *testing.T) {
		var first, second map[string]interface{}
		ts.ParseResponse(ts.ExecuteRequest("GET", "/api/v1/snapshot?seed=7", nil, nil), &first)
		ts.ParseResponse(ts.ExecuteRequest("GET", "/api/v1/snapshot?seed=7", nil, nil), &second)

		for _, key := range []string{"deviceId", "fw", "batteryPct", "tempC", "hum", "alerts"} {
			assert.Equal(t, first[key], second[key], key)
		}
	})

	t.Run("Should reject a malformed seed", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/api/v1/snapshot?seed=abc", nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("Should return a hub snapshot", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/api/v1/snapshot/hub?seed=3", nil, nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var hub map[string]interface{}
		ts.ParseResponse(resp, &hub)
		assert.Contains(t, hub, "executive")
		assert.Contains(t, hub, "construction")
	})

	t.Run("Should return the alerts of a snapshot", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/api/v1/snapshot/alerts?seed=11", nil, nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var response struct {
			Data []map[string]interface{} `json:"data"`
			Meta map[string]interface{}   `json:"meta"`
		}
		ts.ParseResponse(resp, &response)
		assert.Equal(t, float64(len(response.Data)), response.Meta["count"])
		assert.NotEmpty(t, response.Meta["device_id"])
	})
}

func TestLiveRoutes(t *testing.T) {
	ts, _ := setupAPI(t)

	operator := testutil.BearerHeader(ts.CreateTestAuthToken("alice", models.RoleOperator))
	viewer := testutil.BearerHeader(ts.CreateTestAuthToken("victor", models.RoleViewer))

	t.Run("Should return the current frame", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/api/v1/live", nil, nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var frame map[string]interface{}
		ts.ParseResponse(resp, &frame)
		assert.Equal(t, float64(1), frame["sequence"])
		assert.Equal(t, "initial", frame["reason"])
	})

	t.Run("Should require a token for control routes", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, ts.ExecuteRequest("POST", "/api/v1/live/refresh", nil, nil).Code)
		assert.Equal(t, http.StatusForbidden, ts.ExecuteRequest("POST", "/api/v1/live/refresh", nil, viewer).Code)
	})

	t.Run("Should refresh on operator request", func(t *testing.T) {
		resp := ts.ExecuteRequest("POST", "/api/v1/live/refresh", nil, operator)
		require.Equal(t, http.StatusOK, resp.Code)

		var frame map[string]interface{}
		ts.ParseResponse(resp, &frame)
		assert.Equal(t, "refresh", frame["reason"])
		assert.Equal(t, float64(2), frame["sequence"])
	})

	t.Run("Should list recent frames newest first", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/api/v1/live/frames?limit=5", nil, nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var response struct {
			Data []map[string]interface{} `json:"data"`
		}
		ts.ParseResponse(resp, &response)
		require.Len(t, response.Data, 2)
		assert.Equal(t, float64(2), response.Data[0]["sequence"])
	})

	t.Run("Should reject an out of range limit", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/api/v1/live/frames?limit=5000", nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("Should start and stop the simulator once", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, ts.ExecuteRequest("POST", "/api/v1/live/start", nil, operator).Code)
		assert.Equal(t, http.StatusConflict, ts.ExecuteRequest("POST", "/api/v1/live/start", nil, operator).Code)
		assert.Equal(t, http.StatusOK, ts.ExecuteRequest("POST", "/api/v1/live/stop", nil, operator).Code)
		assert.Equal(t, http.StatusConflict, ts.ExecuteRequest("POST", "/api/v1/live/stop", nil, operator).Code)
	})

	t.Run("Should report stats", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/api/v1/live/stats", nil, nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var stats map[string]interface{}
		ts.ParseResponse(resp, &stats)
		assert.Equal(t, false, stats["running"])
		assert.GreaterOrEqual(t, stats["frames"].(float64), float64(2))
	})
}

func TestHistoryRoutes(t *testing.T) {
	ts, _ := setupAPI(t)

	operator := testutil.BearerHeader(ts.CreateTestAuthToken("alice", models.RoleOperator))

	// A refresh persists a second pair of records
	require.Equal(t, http.StatusOK, ts.ExecuteRequest("POST", "/api/v1/live/refresh", nil, operator).Code)

	t.Run("Should page stored snapshots", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/api/v1/history/snapshots?kind=device&page=1&limit=1", nil, nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var response struct {
			Data       []map[string]interface{} `json:"data"`
			Pagination map[string]interface{}   `json:"pagination"`
		}
		ts.ParseResponse(resp, &response)
		require.Len(t, response.Data, 1)
		assert.Equal(t, float64(2), response.Pagination["total_items"])
		assert.Equal(t, float64(2), response.Pagination["total_pages"])
	})

	t.Run("Should reject an unknown kind", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/api/v1/history/snapshots?kind=other", nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("Should return 404 for an unknown snapshot", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/api/v1/history/snapshots/missing", nil, nil)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("Should return a stored series", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/api/v1/history/series?metric=batteryPct", nil, nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var response struct {
			Data []map[string]interface{} `json:"data"`
		}
		ts.ParseResponse(resp, &response)
		assert.Len(t, response.Data, 2)
	})

	t.Run("Should require a metric", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/api/v1/history/series", nil, nil)
		require.Equal(t, http.StatusBadRequest, resp.Code)

		var response map[string]interface{}
		ts.ParseResponse(resp, &response)
		assert.Equal(t, "validation_error", response["error"])
	})

	t.Run("Should aggregate a metric", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/api/v1/history/aggregated?metric=batteryPct&interval=1h", nil, nil)
		require.Equal(t, http.StatusOK, resp.Code)

		resp = ts.ExecuteRequest("GET", "/api/v1/history/aggregated?metric=batteryPct&interval=2w", nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("Should list stored metrics", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/api/v1/history/metrics", nil, nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var response struct {
			Data []string `json:"data"`
		}
		ts.ParseResponse(resp, &response)
		assert.Contains(t, response.Data, "batteryPct")
		assert.Contains(t, response.Data, "hub.healthScore")
	})

	t.Run("Should validate the alert severity", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, ts.ExecuteRequest("GET", "/api/v1/history/alerts?severity=WARN", nil, nil).Code)
		assert.Equal(t, http.StatusBadRequest, ts.ExecuteRequest("GET", "/api/v1/history/alerts?severity=bogus", nil, nil).Code)
	})

	t.Run("Should protect acknowledgement", func(t *testing.T) {
		body := map[string]string{"alert_id": "missing"}
		assert.Equal(t, http.StatusUnauthorized, ts.ExecuteRequest("POST", "/api/v1/history/alerts/acknowledge", body, nil).Code)
		assert.Equal(t, http.StatusNotFound, ts.ExecuteRequest("POST", "/api/v1/history/alerts/acknowledge", body, operator).Code)
		assert.Equal(t, http.StatusBadRequest, ts.ExecuteRequest("POST", "/api/v1/history/alerts/acknowledge", map[string]string{}, operator).Code)
	})
}

func TestExportRoutes(t *testing.T) {
	ts, _ := setupAPI(t)

	operator := testutil.BearerHeader(ts.CreateTestAuthToken("alice", models.RoleOperator))

	t.Run("Should report export as unavailable when disabled", func(t *testing.T) {
		resp := ts.ExecuteRequest("POST", "/api/v1/exports", map[string]string{"device_id": "HAWK-100001"}, operator)
		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})

	t.Run("Should require an operator", func(t *testing.T) {
		resp := ts.ExecuteRequest("POST", "/api/v1/exports", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestWebSocketRoute(t *testing.T) {
	ts, provider := setupAPI(t)

	server := httptest.NewServer(ts.Router)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws"

	t.Run("Should reject unknown topics", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?topics=bogus", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Should stream subscribed frames", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?topics=hub", nil)
		require.NoError(t, err)
		defer conn.Close()

		require.Eventually(t, func() bool {
			return provider.GetNotificationService().ClientCount() == 1
		}, 2*time.Second, 10*time.Millisecond)

		provider.GetLiveService().Refresh(context.Background())

		var message services.NotificationMessage
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&message))
		assert.Equal(t, services.NotificationTypeHub, message.Type)
		assert.Equal(t, services.TopicHub, message.Topic)
	})
}
