package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/croningp/NanoDiscovery/pkg/core/events"
	"github.com/croningp/NanoDiscovery/pkg/storage/dao"
)

// RunSummary 一次运行的概要（对外导出）
type RunSummary struct {
	RunID      string    `db:"run_id" json:"run_id"`
	EventCount int       `db:"event_count" json:"event_count"`
	FirstTime  time.Time `db:"first_time" json:"first_time"`
	LastTime   time.Time `db:"last_time" json:"last_time"`
}

// scanTime 兼容各驱动的时间列扫描
// SQLite对MIN/MAX聚合结果丢失DATETIME亲和性，驱动按原始字符串返回
type scanTime struct {
	time.Time
}

var scanTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// Scan 实现sql.Scanner
func (t *scanTime) Scan(v interface{}) error {
	switch v := v.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("无法扫描时间值: %T", v)
}

func (t *scanTime) parse(s string) error {
	for _, layout := range scanTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("无法解析时间字符串: %q", s)
}

// RunEventRepository 运行事件Repository接口（对外导出）
type RunEventRepository interface {
	// RecordEvent 落库一条运行事件
	RecordEvent(event *events.Event) error
	// ListByRun 按时间顺序返回一次运行的全部事件
	ListByRun(ctx context.Context, runID string) ([]*events.Event, error)
	// Runs 返回全部运行的概要，按开始时间倒序
	Runs(ctx context.Context) ([]RunSummary, error)
	// Close 关闭底层连接
	Close() error
}

// SQLRunEventRepo RunEventRepository的sqlx实现（对外导出）
// 通过Dialect适配SQLite/PostgreSQL/MySQL
type SQLRunEventRepo struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewSQLRunEventRepo 创建运行事件Repository（对外导出）
func NewSQLRunEventRepo(db *sqlx.DB, dialect Dialect) (*SQLRunEventRepo, error) {
	repo := &SQLRunEventRepo{db: db, dialect: dialect}
	for _, stmt := range dialect.ConfigureDB() {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("配置数据库失败: %w", err)
		}
	}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return repo, nil
}

// initSchema 初始化run_event表
func (r *SQLRunEventRepo) initSchema() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS run_event (
		id %[1]s PRIMARY KEY,
		run_id %[1]s NOT NULL,
		type %[1]s NOT NULL,
		generation INTEGER NOT NULL,
		experiment INTEGER NOT NULL,
		message %[1]s,
		payload %[1]s,
		event_time %[2]s NOT NULL
	);`, r.dialect.TextType(), r.dialect.TimestampType())

	if _, err := r.db.Exec(r.dialect.CreateTableSQL(schema)); err != nil {
		return err
	}
	// MySQL的CREATE INDEX不支持IF NOT EXISTS，重复创建的报错可忽略
	if _, err := r.db.Exec("CREATE INDEX IF NOT EXISTS idx_run_event_run ON run_event(run_id)"); err != nil {
		if r.dialect.Name() != "mysql" {
			return err
		}
	}
	return nil
}

// RecordEvent 落库一条运行事件（对外导出）
func (r *SQLRunEventRepo) RecordEvent(event *events.Event) error {
	d, err := dao.FromEvent(event)
	if err != nil {
		return fmt.Errorf("转换运行事件失败: %w", err)
	}
	columns := []string{"id", "run_id", "type", "generation", "experiment", "message", "payload", "event_time"}
	query := r.dialect.UpsertSQL("run_event", columns, "id", columns[1:])
	if _, err := r.db.NamedExec(query, d); err != nil {
		return fmt.Errorf("写入运行事件失败: %w", err)
	}
	return nil
}

// ListByRun 按时间顺序返回一次运行的全部事件（对外导出）
func (r *SQLRunEventRepo) ListByRun(ctx context.Context, runID string) ([]*events.Event, error) {
	query := fmt.Sprintf(
		"SELECT * FROM run_event WHERE run_id = %s ORDER BY event_time ASC",
		r.dialect.Placeholder(1))

	var daos []dao.RunEventDAO
	if err := r.db.SelectContext(ctx, &daos, query, runID); err != nil {
		return nil, fmt.Errorf("查询运行事件失败: %w", err)
	}
	out := make([]*events.Event, 0, len(daos))
	for i := range daos {
		e, err := daos[i].ToEvent()
		if err != nil {
			return nil, fmt.Errorf("还原运行事件失败: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Runs 返回全部运行的概要，按开始时间倒序（对外导出）
func (r *SQLRunEventRepo) Runs(ctx context.Context) ([]RunSummary, error) {
	query := `
	SELECT run_id,
	       COUNT(*) AS event_count,
	       MIN(event_time) AS first_time,
	       MAX(event_time) AS last_time
	FROM run_event
	GROUP BY run_id
	ORDER BY first_time DESC`

	var rows []struct {
		RunID      string   `db:"run_id"`
		EventCount int      `db:"event_count"`
		FirstTime  scanTime `db:"first_time"`
		LastTime   scanTime `db:"last_time"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("查询运行列表失败: %w", err)
	}
	out := make([]RunSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, RunSummary{
			RunID:      row.RunID,
			EventCount: row.EventCount,
			FirstTime:  row.FirstTime.Time,
			LastTime:   row.LastTime.Time,
		})
	}
	return out, nil
}

// GetDB 获取底层数据库连接（对外导出）
func (r *SQLRunEventRepo) GetDB() *sqlx.DB {
	return r.db
}

// Close 关闭数据库连接（对外导出）
func (r *SQLRunEventRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
