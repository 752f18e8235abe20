package plugin

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croningp/NanoDiscovery/pkg/core/events"
)

// fakePlugin 测试插件
type fakePlugin struct {
	name string
	mu   sync.Mutex
	got  []*events.Event
}

func (p *fakePlugin) Name() string                        { return p.name }
func (p *fakePlugin) Init(params map[string]string) error { return nil }
func (p *fakePlugin) Execute(data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, data.(*events.Event))
	return nil
}

func (p *fakePlugin) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

func TestManagerTrigger(t *testing.T) {
	pm := NewManager()
	fp := &fakePlugin{name: "fake"}
	require.NoError(t, pm.Register(fp))
	require.NoError(t, pm.Bind(Binding{PluginName: "fake", Event: events.EventRunFailed}))

	// 绑定的事件触发插件
	require.NoError(t, pm.Trigger(context.Background(),
		events.NewEvent(events.EventRunFailed, "run-1", 1, -1, "故障")))
	assert.Equal(t, 1, fp.count())

	// 未绑定的事件不触发
	require.NoError(t, pm.Trigger(context.Background(),
		events.NewEvent(events.EventRunStarted, "run-1", 0, -1, "")))
	assert.Equal(t, 1, fp.count())
}

func TestManagerBindCondition(t *testing.T) {
	pm := NewManager()
	fp := &fakePlugin{name: "fake"}
	require.NoError(t, pm.Register(fp))
	require.NoError(t, pm.Bind(Binding{
		PluginName: "fake",
		Event:      events.EventGenerationDone,
		Condition:  func(e *events.Event) bool { return e.Generation >= 2 },
	}))

	require.NoError(t, pm.Trigger(context.Background(),
		events.NewEvent(events.EventGenerationDone, "run-1", 1, -1, "")))
	assert.Equal(t, 0, fp.count(), "条件不满足不应触发")

	require.NoError(t, pm.Trigger(context.Background(),
		events.NewEvent(events.EventGenerationDone, "run-1", 2, -1, "")))
	assert.Equal(t, 1, fp.count())
}

func TestManagerDuplicateRegister(t *testing.T) {
	pm := NewManager()
	require.NoError(t, pm.Register(&fakePlugin{name: "fake"}))
	assert.Error(t, pm.Register(&fakePlugin{name: "fake"}), "重复注册应报错")
	assert.Error(t, pm.Bind(Binding{PluginName: "missing", Event: events.EventRunFailed}),
		"绑定未注册的插件应报错")
}

func TestManagerUnregister(t *testing.T) {
	pm := NewManager()
	fp := &fakePlugin{name: "fake"}
	require.NoError(t, pm.Register(fp))
	require.NoError(t, pm.Bind(Binding{PluginName: "fake", Event: events.EventRunFailed}))
	require.NoError(t, pm.Unregister("fake"))

	require.NoError(t, pm.Trigger(context.Background(),
		events.NewEvent(events.EventRunFailed, "run-1", 1, -1, "")))
	assert.Equal(t, 0, fp.count(), "注销后不应再触发")
	assert.Empty(t, pm.ListPlugins())
}
