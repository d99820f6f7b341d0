package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/digital-egiz/sensorhub/internal/simulator"
	"github.com/digital-egiz/sensorhub/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocuments(t *testing.T) {
	now := time.Date(2024, 5, 14, 10, 0, 0, 0, time.UTC)
	gen := telemetry.New(telemetry.WithSeed(11), telemetry.WithClock(func() time.Time { return now }))

	t.Run("Should produce one document per section", func(t *testing.T) {
		frame := &simulator.Frame{Sequence: 1, At: now, Device: gen.Generate(), Hub: gen.GenerateHub()}

		docs, err := Documents("sensorhub", frame)
		require.NoError(t, err)
		require.Len(t, docs, 3)

		base := "sensorhub/" + frame.Device.DeviceID
		assert.Equal(t, base+"/telemetry", docs[0].Topic)
		assert.Equal(t, base+"/hub", docs[1].Topic)
		assert.Equal(t, base+"/alerts", docs[2].Topic)

		var decoded telemetry.Snapshot
		require.NoError(t, json.Unmarshal(docs[0].Payload, &decoded))
		assert.Equal(t, frame.Device.DeviceID, decoded.DeviceID)

		var alerts []telemetry.Alert
		require.NoError(t, json.Unmarshal(docs[2].Payload, &alerts))
		assert.Len(t, alerts, len(frame.Device.Alerts))
	})

	t.Run("Should reject frames without a device", func(t *testing.T) {
		_, err := Documents("sensorhub", &simulator.Frame{Sequence: 2})
		assert.Error(t, err)
	})
}
