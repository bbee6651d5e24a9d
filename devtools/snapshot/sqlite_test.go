package snapshot_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domkit-go/domkit/core"
	"github.com/domkit-go/domkit/devtools/snapshot"
)

func TestRecordAndRecent(t *testing.T) {
	store, err := snapshot.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(core.Diagnostics{HandlerCount: 1, ThrottleDropped: map[core.EventType]uint64{core.EventScroll: 3}}, base))
	require.NoError(t, store.Record(core.Diagnostics{HandlerCount: 2, ThrottleDropped: map[core.EventType]uint64{core.EventScroll: 7}}, base.Add(time.Second)))

	rows, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].HandlerCount, "most recent snapshot comes first")
	assert.Equal(t, uint64(7), rows[0].ThrottleDropped["scroll"])
	assert.Equal(t, 1, rows[1].HandlerCount)
}

func TestRecentRespectsLimit(t *testing.T) {
	store, err := snapshot.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(core.Diagnostics{HandlerCount: i}, time.Now().Add(time.Duration(i)*time.Millisecond)))
	}

	rows, err := store.Recent(2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
