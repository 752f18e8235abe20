package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croningp/NanoDiscovery/pkg/core/events"
)

func TestRunEventRoundTrip(t *testing.T) {
	repo, err := OpenRunEventRepo(":memory:")
	require.NoError(t, err)
	defer repo.Close()

	e1 := events.NewEvent(events.EventRunStarted, "run-1", 0, -1, "au-np")
	e2 := events.NewEvent(events.EventTitrationDone, "run-1", 2, 5, "success=true")
	e2.Payload = map[string]interface{}{"final_ph": 6.95}
	require.NoError(t, repo.RecordEvent(e1))
	require.NoError(t, repo.RecordEvent(e2))

	got, err := repo.ListByRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, events.EventRunStarted, got[0].Type)
	assert.Equal(t, events.EventTitrationDone, got[1].Type)
	assert.Equal(t, 5, got[1].Experiment)
	assert.InDelta(t, 6.95, got[1].Payload["final_ph"].(float64), 1e-9)

	// 同一事件重复落库走UPSERT，不产生重复行
	require.NoError(t, repo.RecordEvent(e2))
	got, err = repo.ListByRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	runs, err := repo.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.Equal(t, 2, runs[0].EventCount)
	// MIN/MAX聚合在SQLite下按字符串返回，概要时间仍应完整还原
	assert.False(t, runs[0].FirstTime.IsZero(), "运行开始时间应被还原")
	assert.False(t, runs[0].LastTime.Before(runs[0].FirstTime))
}
