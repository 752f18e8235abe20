package instrument

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardExclusive(t *testing.T) {
	g := NewGuard("ph_probe")
	require.NoError(t, g.Acquire(context.Background()))

	// 已被占用时第二次Acquire应阻塞直到超时
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := g.Acquire(ctx)
	assert.Error(t, err, "独占期间不应允许二次获取")

	g.Release()
	require.NoError(t, g.Acquire(context.Background()))
}

func TestGuardReleaseAfterCleaning(t *testing.T) {
	g := NewGuard("seed_arm")
	require.NoError(t, g.Acquire(context.Background()))

	cleaned := make(chan struct{})
	g.ReleaseAfter(func() error {
		close(cleaned)
		return nil
	})

	select {
	case <-cleaned:
	case <-time.After(time.Second):
		t.Fatal("清洗任务未执行")
	}
	require.NoError(t, g.Acquire(context.Background()))
	g.Release()
}

func TestGuardSurfacesCleaningError(t *testing.T) {
	g := NewGuard("ph_probe")
	require.NoError(t, g.Acquire(context.Background()))

	cleanErr := errors.New("排水阀堵塞")
	g.ReleaseAfter(func() error { return cleanErr })

	// 清洗失败的错误在下一次Acquire时上抛
	err := g.Acquire(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, cleanErr, "清洗错误应随令牌传递")

	// 错误处理完毕后归还，仪器恢复可用
	g.Release()
	require.NoError(t, g.Acquire(context.Background()))
}
