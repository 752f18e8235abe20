package dao

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/croningp/NanoDiscovery/pkg/core/events"
)

// RunEventDAO run_event表的数据访问对象（内部使用）
type RunEventDAO struct {
	ID         string         `db:"id"`
	RunID      string         `db:"run_id"`
	Type       string         `db:"type"`
	Generation int            `db:"generation"`
	Experiment int            `db:"experiment"`
	Message    sql.NullString `db:"message"`
	Payload    sql.NullString `db:"payload"` // JSON格式存储
	EventTime  time.Time      `db:"event_time"`
}

// FromEvent 把运行事件转换为DAO（对外导出）
func FromEvent(e *events.Event) (*RunEventDAO, error) {
	d := &RunEventDAO{
		ID:         e.ID,
		RunID:      e.RunID,
		Type:       string(e.Type),
		Generation: e.Generation,
		Experiment: e.Experiment,
		EventTime:  e.Time,
	}
	if e.Message != "" {
		d.Message = sql.NullString{String: e.Message, Valid: true}
	}
	if len(e.Payload) > 0 {
		data, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, err
		}
		d.Payload = sql.NullString{String: string(data), Valid: true}
	}
	return d, nil
}

// ToEvent 把DAO还原为运行事件（对外导出）
func (d *RunEventDAO) ToEvent() (*events.Event, error) {
	e := &events.Event{
		ID:         d.ID,
		RunID:      d.RunID,
		Type:       events.EventType(d.Type),
		Generation: d.Generation,
		Experiment: d.Experiment,
		Message:    d.Message.String,
		Time:       d.EventTime,
	}
	if d.Payload.Valid && d.Payload.String != "" {
		if err := json.Unmarshal([]byte(d.Payload.String), &e.Payload); err != nil {
			return nil, err
		}
	}
	return e, nil
}
