// Package events 提供运行事件总线
// 执行器在关键节点发布事件，API层与通知插件订阅消费
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// EventType 事件类型
type EventType string

const (
	EventRunStarted      EventType = "run.started"
	EventRunFinished     EventType = "run.finished"
	EventRunFailed       EventType = "run.failed"
	EventGenerationBegin EventType = "generation.begin"
	EventGenerationDone  EventType = "generation.done"
	EventGenerationSkip  EventType = "generation.skip"
	EventDispenseDone    EventType = "dispense.done"
	EventTransferDone    EventType = "transfer.done"
	EventTitrationDone   EventType = "titration.done"
	EventAnalysisDone    EventType = "analysis.done"
)

// Topic 全部事件发布到的统一主题
const Topic = "nanodiscovery.run"

// Event 一条运行事件（对外导出）
type Event struct {
	ID         string                 `json:"id"`
	Type       EventType              `json:"type"`
	RunID      string                 `json:"run_id"`
	Generation int                    `json:"generation"`
	Experiment int                    `json:"experiment"` // 无关联实验时为-1
	Message    string                 `json:"message"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Time       time.Time              `json:"time"`
}

// NewEvent 创建事件（对外导出）
func NewEvent(eventType EventType, runID string, generation, experiment int, msg string) *Event {
	return &Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		RunID:      runID,
		Generation: generation,
		Experiment: experiment,
		Message:    msg,
		Time:       time.Now(),
	}
}

// Bus 进程内事件总线（对外导出）
// 基于watermill的gochannel实现，非持久化
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus 创建事件总线（对外导出）
func NewBus() *Bus {
	logger := watermill.NewStdLogger(false, false)
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)
	return &Bus{pubsub: pubsub}
}

// Publish 发布一条事件（对外导出）
func (b *Bus) Publish(event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	msg := message.NewMessage(event.ID, payload)
	if err := b.pubsub.Publish(Topic, msg); err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}
	return nil
}

// Subscribe 订阅事件流（对外导出）
// 返回的channel在ctx取消后关闭
func (b *Bus) Subscribe(ctx context.Context) (<-chan *Event, error) {
	messages, err := b.pubsub.Subscribe(ctx, Topic)
	if err != nil {
		return nil, fmt.Errorf("订阅事件失败: %w", err)
	}

	out := make(chan *Event, 16)
	go func() {
		defer close(out)
		for msg := range messages {
			var event Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				msg.Nack()
				continue
			}
			msg.Ack()
			select {
			case out <- &event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close 关闭总线（对外导出）
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
