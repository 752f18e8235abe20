package cmd

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croningp/NanoDiscovery/pkg/core/events"
	"github.com/croningp/NanoDiscovery/pkg/plugin"
)

// capturePlugin 记录收到的事件，测试用
type capturePlugin struct {
	mu       sync.Mutex
	received []*events.Event
}

func (p *capturePlugin) Name() string                       { return "capture" }
func (p *capturePlugin) Init(params map[string]string) error { return nil }

func (p *capturePlugin) Execute(data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := data.(*events.Event); ok {
		p.received = append(p.received, e)
	}
	return nil
}

func (p *capturePlugin) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.received))
	for _, e := range p.received {
		out = append(out, e.Type)
	}
	return out
}

func TestBindAlerts(t *testing.T) {
	pm := plugin.NewManager()
	capture := &capturePlugin{}
	require.NoError(t, pm.Register(capture))
	require.NoError(t, bindAlerts(pm, capture.Name()))

	ctx := context.Background()
	trigger := func(e *events.Event) {
		require.NoError(t, pm.Trigger(ctx, e))
	}

	// 每代完成与跳代都应通知
	trigger(events.NewEvent(events.EventGenerationDone, "run-1", 1, -1, ""))
	trigger(events.NewEvent(events.EventGenerationSkip, "run-1", 2, -1, "目录缺失"))
	// 收敛的滴定不通知，未收敛的才通知
	trigger(events.NewEvent(events.EventTitrationDone, "run-1", 2, 5, "success=true"))
	trigger(events.NewEvent(events.EventTitrationDone, "run-1", 2, 6, "success=false"))
	// 配液完成未绑定，不应通知
	trigger(events.NewEvent(events.EventDispenseDone, "run-1", 1, 0, ""))
	trigger(events.NewEvent(events.EventRunFinished, "run-1", 2, -1, "au-np"))

	assert.Equal(t, []events.EventType{
		events.EventGenerationDone,
		events.EventGenerationSkip,
		events.EventTitrationDone,
		events.EventRunFinished,
	}, capture.types())
}
