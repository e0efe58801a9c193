package brokerout

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
)

func TestSnapshotFrom_FlattensSysState(t *testing.T) {
	var st model.SysState
	st.Measure.Vrms = 231.5
	st.Output[2] = true
	st.Fails.FailV[1] = true
	st.ETotal = 12.25

	snap := SnapshotFrom(1000, st)
	assert.Equal(t, uint32(1000), snap.TimestampMS)
	assert.Equal(t, float32(231.5), snap.Vrms)
	assert.True(t, snap.Outputs[2])
	assert.True(t, snap.FailV[1])
	assert.Equal(t, 12.25, snap.ETotalKWh)
}

func TestPublisher_PublishWritesNewlineDelimitedJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPublisher(&buf)

	var st model.SysState
	st.Measure.Irms = 1.2
	require.NoError(t, p.Publish(SnapshotFrom(1, st)))
	require.NoError(t, p.Publish(SnapshotFrom(2, st)))

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 2)

	var got Snapshot
	require.NoError(t, json.Unmarshal(lines[0], &got))
	assert.Equal(t, uint32(1), got.TimestampMS)
	assert.Equal(t, float32(1.2), got.Irms)

	require.NoError(t, json.Unmarshal(lines[1], &got))
	assert.Equal(t, uint32(2), got.TimestampMS)
}
