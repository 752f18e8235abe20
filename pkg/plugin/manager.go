package plugin

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/croningp/NanoDiscovery/pkg/core/events"
)

// Binding 插件绑定规则（对外导出）
type Binding struct {
	PluginName string                     // 插件名称
	Event      events.EventType           // 触发事件
	Condition  func(e *events.Event) bool // 可选：条件函数，满足条件才触发
}

// Manager 插件管理器接口（对外导出）
type Manager interface {
	// Register 注册插件
	Register(plugin Plugin) error
	// RegisterWithInit 注册并初始化插件
	RegisterWithInit(plugin Plugin, params map[string]string) error
	// Bind 绑定插件到事件
	Bind(binding Binding) error
	// Trigger 触发绑定到该事件的全部插件
	Trigger(ctx context.Context, event *events.Event) error
	// Watch 订阅事件总线并持续分发，ctx取消后退出
	Watch(ctx context.Context, bus *events.Bus) error
	// GetPlugin 获取已注册的插件
	GetPlugin(name string) (Plugin, bool)
	// ListPlugins 列出所有已注册的插件
	ListPlugins() []string
	// Unregister 取消注册插件
	Unregister(name string) error
}

// managerImpl 插件管理器实现（内部实现）
type managerImpl struct {
	plugins  map[string]Plugin
	bindings map[events.EventType][]Binding
	mu       sync.RWMutex
}

// NewManager 创建插件管理器（对外导出）
func NewManager() Manager {
	return &managerImpl{
		plugins:  make(map[string]Plugin),
		bindings: make(map[events.EventType][]Binding),
	}
}

// Register 注册插件（实现Manager接口）
func (pm *managerImpl) Register(plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("插件不能为空")
	}
	name := plugin.Name()
	if name == "" {
		return fmt.Errorf("插件名称不能为空")
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	if _, exists := pm.plugins[name]; exists {
		return fmt.Errorf("插件 %s 已注册", name)
	}
	pm.plugins[name] = plugin
	return nil
}

// RegisterWithInit 注册并初始化插件（实现Manager接口）
func (pm *managerImpl) RegisterWithInit(plugin Plugin, params map[string]string) error {
	if err := pm.Register(plugin); err != nil {
		return err
	}
	if err := plugin.Init(params); err != nil {
		// 初始化失败，移除已注册的插件
		pm.mu.Lock()
		delete(pm.plugins, plugin.Name())
		pm.mu.Unlock()
		return fmt.Errorf("插件 %s 初始化失败: %w", plugin.Name(), err)
	}
	return nil
}

// Bind 绑定插件到事件（实现Manager接口）
func (pm *managerImpl) Bind(binding Binding) error {
	if binding.PluginName == "" {
		return fmt.Errorf("插件名称不能为空")
	}
	if binding.Event == "" {
		return fmt.Errorf("触发事件不能为空")
	}

	pm.mu.RLock()
	_, exists := pm.plugins[binding.PluginName]
	pm.mu.RUnlock()
	if !exists {
		return fmt.Errorf("插件 %s 未注册", binding.PluginName)
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.bindings[binding.Event] = append(pm.bindings[binding.Event], binding)
	return nil
}

// Trigger 触发绑定到该事件的全部插件（实现Manager接口）
func (pm *managerImpl) Trigger(ctx context.Context, event *events.Event) error {
	pm.mu.RLock()
	bindings := pm.bindings[event.Type]
	pm.mu.RUnlock()

	if len(bindings) == 0 {
		return nil
	}

	var errs []error
	for _, binding := range bindings {
		if binding.Condition != nil && !binding.Condition(event) {
			continue
		}

		pm.mu.RLock()
		plugin, exists := pm.plugins[binding.PluginName]
		pm.mu.RUnlock()
		if !exists {
			continue
		}

		if err := plugin.Execute(event); err != nil {
			errs = append(errs, fmt.Errorf("插件 %s 执行失败: %w", binding.PluginName, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("触发插件失败: %v", errs)
	}
	return nil
}

// Watch 订阅事件总线并持续分发（实现Manager接口）
func (pm *managerImpl) Watch(ctx context.Context, bus *events.Bus) error {
	ch, err := bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	go func() {
		for event := range ch {
			if err := pm.Trigger(ctx, event); err != nil {
				log.Printf("⚠️ [插件管理器] %v", err)
			}
		}
	}()
	return nil
}

// GetPlugin 获取已注册的插件（实现Manager接口）
func (pm *managerImpl) GetPlugin(name string) (Plugin, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	plugin, exists := pm.plugins[name]
	return plugin, exists
}

// ListPlugins 列出所有已注册的插件（实现Manager接口）
func (pm *managerImpl) ListPlugins() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	names := make([]string, 0, len(pm.plugins))
	for name := range pm.plugins {
		names = append(names, name)
	}
	return names
}

// Unregister 取消注册插件（实现Manager接口）
func (pm *managerImpl) Unregister(name string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if _, exists := pm.plugins[name]; !exists {
		return fmt.Errorf("插件 %s 未注册", name)
	}
	delete(pm.plugins, name)

	// 移除所有相关的绑定
	for event := range pm.bindings {
		filtered := make([]Binding, 0)
		for _, binding := range pm.bindings[event] {
			if binding.PluginName != name {
				filtered = append(filtered, binding)
			}
		}
		pm.bindings[event] = filtered
	}
	return nil
}
