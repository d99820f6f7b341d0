package repository_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/digital-egiz/sensorhub/internal/db/models"
	"github.com/digital-egiz/sensorhub/internal/db/repository"
	"github.com/digital-egiz/sensorhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 5, 14, 10, 0, 0, 0, time.UTC)

func TestSnapshotRepository(t *testing.T) {
	// Setup test environment
	ts := testutil.NewTestSetup(t)
	defer ts.Cleanup()
	ts.Migrate()

	repo := repository.NewRepositoryFactory(ts.DB.DB).Snapshot()

	for i := 0; i < 5; i++ {
		kind := models.KindDevice
		if i%2 == 1 {
			kind = models.KindHub
		}
		err := repo.Create(&models.SnapshotRecord{
			Kind:        kind,
			DeviceID:    "HAWK-100001",
			Reason:      "tick",
			Sequence:    uint64(i + 1),
			GeneratedAt: baseTime.Add(time.Duration(i) * time.Minute),
			Payload:     models.JSON(fmt.Sprintf(`{"seq":%d}`, i+1)),
		})
		require.NoError(t, err)
	}

	t.Run("Should assign an ID on create", func(t *testing.T) {
		record := &models.SnapshotRecord{Kind: models.KindDevice, GeneratedAt: baseTime.Add(-time.Hour)}
		require.NoError(t, repo.Create(record))
		assert.Len(t, record.ID, 36)

		stored, err := repo.GetByID(record.ID)
		require.NoError(t, err)
		assert.Equal(t, models.KindDevice, stored.Kind)
	})

	t.Run("Should reject unknown kinds", func(t *testing.T) {
		err := repo.Create(&models.SnapshotRecord{Kind: "other", GeneratedAt: baseTime})
		assert.ErrorIs(t, err, repository.ErrInvalidInput)
	})

	t.Run("Should return the latest record of a kind", func(t *testing.T) {
		latest, err := repo.Latest(models.KindHub)
		require.NoError(t, err)
		assert.Equal(t, uint64(4), latest.Sequence)
		assert.JSONEq(t, `{"seq":4}`, string(latest.Payload))
	})

	t.Run("Should page records newest first", func(t *testing.T) {
		records, total, err := repo.List(models.KindDevice, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, records, 2)
		assert.Equal(t, uint64(5), records[0].Sequence)
		assert.Equal(t, uint64(3), records[1].Sequence)
	})

	t.Run("Should return not found for unknown IDs", func(t *testing.T) {
		_, err := repo.GetByID("missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Should prune old records", func(t *testing.T) {
		removed, err := repo.PruneBefore(baseTime.Add(2 * time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(3), removed)

		_, total, err := repo.List("", 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})
}

func TestTimeseriesRepository(t *testing.T) {
	// Setup test environment
	ts := testutil.NewTestSetup(t)
	defer ts.Cleanup()
	ts.Migrate()

	repo := repository.NewTimeseriesRepository(ts.DB.DB)

	// 60 samples of tempC one minute apart, values 0..59
	var samples []models.TimeseriesData
	for i := 0; i < 60; i++ {
		samples = append(samples, models.TimeseriesData{
			Time:     baseTime.Add(time.Duration(i) * time.Minute),
			DeviceID: "HAWK-100001",
			Metric:   "tempC",
			Value:    float64(i),
			Source:   "device",
		})
	}
	samples = append(samples, models.TimeseriesData{
		Time: baseTime, DeviceID: "HAWK-100001", Metric: "hum", Value: 40, Source: "device",
	})
	require.NoError(t, repo.InsertBatch(samples))

	t.Run("Should query a range newest first with a limit", func(t *testing.T) {
		data, err := repo.GetTimeseriesData("HAWK-100001", "tempC", baseTime, baseTime.Add(time.Hour), 5)
		require.NoError(t, err)
		require.Len(t, data, 5)
		assert.Equal(t, 59.0, data[0].Value)
		assert.Equal(t, 55.0, data[4].Value)
	})

	t.Run("Should overwrite samples stored twice", func(t *testing.T) {
		dup := []models.TimeseriesData{{Time: baseTime, DeviceID: "HAWK-100001", Metric: "hum", Value: 55, Source: "device"}}
		require.NoError(t, repo.InsertBatch(dup))

		latest, err := repo.GetLatest("HAWK-100001", "hum")
		require.NoError(t, err)
		assert.Equal(t, 55.0, latest.Value)
	})

	t.Run("Should aggregate into buckets", func(t *testing.T) {
		testCases := []struct {
			interval string
			buckets  int
			first    models.AggregatedData
		}{
			{"15m", 4, models.AggregatedData{Min: 45, Max: 59, Sum: 780, Count: 15, Avg: 52}},
			{"1h", 1, models.AggregatedData{Min: 0, Max: 59, Sum: 1770, Count: 60, Avg: 29.5}},
		}

		for _, tc := range testCases {
			t.Run(tc.interval, func(t *testing.T) {
				data, err := repo.GetAggregated("HAWK-100001", "tempC", baseTime, baseTime.Add(time.Hour), tc.interval)
				require.NoError(t, err)
				require.Len(t, data, tc.buckets)

				b := data[0]
				assert.Equal(t, tc.first.Min, b.Min)
				assert.Equal(t, tc.first.Max, b.Max)
				assert.Equal(t, tc.first.Sum, b.Sum)
				assert.Equal(t, tc.first.Count, b.Count)
				assert.InDelta(t, tc.first.Avg, b.Avg, 1e-9)
				assert.Equal(t, tc.interval, b.IntervalType)
			})
		}
	})

	t.Run("Should reject unknown intervals", func(t *testing.T) {
		_, err := repo.GetAggregated("HAWK-100001", "tempC", baseTime, baseTime.Add(time.Hour), "2w")
		assert.ErrorIs(t, err, repository.ErrInvalidInput)
	})

	t.Run("Should list metrics", func(t *testing.T) {
		metrics, err := repo.ListMetrics("HAWK-100001")
		require.NoError(t, err)
		assert.Equal(t, []string{"hum", "tempC"}, metrics)
	})

	t.Run("Should return samples since a time oldest first", func(t *testing.T) {
		data, err := repo.GetSince("HAWK-100001", baseTime.Add(58*time.Minute))
		require.NoError(t, err)
		require.Len(t, data, 2)
		assert.True(t, data[0].Time.Before(data[1].Time))
	})

	t.Run("Should delete a range", func(t *testing.T) {
		removed, err := repo.DeleteRange("HAWK-100001", "tempC", baseTime, baseTime.Add(9*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(10), removed)

		_, err = repo.GetLatest("HAWK-100001", "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestAggregate(t *testing.T) {
	t.Run("Should return no buckets for no samples", func(t *testing.T) {
		assert.Empty(t, repository.Aggregate(nil, time.Hour, "1h"))
	})

	t.Run("Should track first and last sample times", func(t *testing.T) {
		samples := []models.TimeseriesData{
			{Time: baseTime.Add(30 * time.Minute), Value: 2},
			{Time: baseTime.Add(5 * time.Minute), Value: 4},
		}
		out := repository.Aggregate(samples, time.Hour, "1h")
		require.Len(t, out, 1)
		assert.Equal(t, baseTime, out[0].TimeInterval)
		assert.Equal(t, baseTime.Add(5*time.Minute), out[0].FirstTime)
		assert.Equal(t, baseTime.Add(30*time.Minute), out[0].LastTime)
		assert.Equal(t, 3.0, out[0].Avg)
	})

	t.Run("Should keep devices in separate buckets", func(t *testing.T) {
		samples := []models.TimeseriesData{
			{Time: baseTime.Add(10 * time.Minute), DeviceID: "HAWK-200002", Metric: "tempC", Value: 30},
			{Time: baseTime.Add(5 * time.Minute), DeviceID: "HAWK-100001", Metric: "tempC", Value: 20},
			{Time: baseTime.Add(20 * time.Minute), DeviceID: "HAWK-100001", Metric: "tempC", Value: 22},
			{Time: baseTime.Add(70 * time.Minute), DeviceID: "HAWK-200002", Metric: "tempC", Value: 34},
		}
		out := repository.Aggregate(samples, time.Hour, "1h")
		require.Len(t, out, 3)

		assert.Equal(t, baseTime.Add(time.Hour), out[0].TimeInterval)
		assert.Equal(t, "HAWK-200002", out[0].DeviceID)
		assert.Equal(t, 1, out[0].Count)

		assert.Equal(t, "HAWK-100001", out[1].DeviceID)
		assert.Equal(t, 2, out[1].Count)
		assert.Equal(t, 21.0, out[1].Avg)

		assert.Equal(t, "HAWK-200002", out[2].DeviceID)
		assert.Equal(t, 30.0, out[2].Avg)
	})
}

func TestAlertRepository(t *testing.T) {
	// Setup test environment
	ts := testutil.NewTestSetup(t)
	defer ts.Cleanup()
	ts.Migrate()

	repo := repository.NewAlertRepository(ts.DB.DB)

	alerts := []models.AlertData{
		{Time: baseTime, DeviceID: "HAWK-100001", Kind: "high_temperature", Severity: "WARN", Title: "High Temperature", Source: "device"},
		{Time: baseTime.Add(time.Minute), DeviceID: "HAWK-100001", Kind: "high_water_level", Severity: "CRIT", Title: "High Water Level", Source: "device"},
		{Time: baseTime.Add(2 * time.Minute), DeviceID: "HUB", Kind: "leak_detected", Severity: "High", Source: "hub"},
	}
	require.NoError(t, repo.InsertBatch(alerts))

	t.Run("Should filter by severity and source", func(t *testing.T) {
		crit, err := repo.Query(repository.AlertFilter{Severity: "CRIT"})
		require.NoError(t, err)
		require.Len(t, crit, 1)
		assert.Equal(t, "high_water_level", crit[0].Kind)

		hub, err := repo.Query(repository.AlertFilter{Source: "hub"})
		require.NoError(t, err)
		assert.Len(t, hub, 1)
	})

	t.Run("Should acknowledge once", func(t *testing.T) {
		all, err := repo.Query(repository.AlertFilter{DeviceID: "HAWK-100001"})
		require.NoError(t, err)
		require.Len(t, all, 2)
		id := all[0].AlertID

		acked, err := repo.Acknowledge(id, "alice")
		require.NoError(t, err)
		assert.True(t, acked.Acknowledged)
		assert.Equal(t, "alice", acked.AckBy)
		assert.NotNil(t, acked.AckTime)

		_, err = repo.Acknowledge(id, "bob")
		assert.ErrorIs(t, err, repository.ErrConflict)

		pending := false
		open, err := repo.Query(repository.AlertFilter{Acknowledged: &pending})
		require.NoError(t, err)
		assert.Len(t, open, 2)
	})

	t.Run("Should return not found for unknown alerts", func(t *testing.T) {
		_, err := repo.Acknowledge("missing", "alice")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Should prune old alerts", func(t *testing.T) {
		removed, err := repo.PruneBefore(baseTime.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)
	})
}
