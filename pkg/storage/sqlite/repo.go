package sqlite

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/croningp/NanoDiscovery/pkg/storage"
)

// OpenRunEventRepo 打开SQLite运行事件Repository（对外导出）
func OpenRunEventRepo(dsn string) (*storage.SQLRunEventRepo, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	repo, err := storage.NewSQLRunEventRepo(db, NewSQLiteDialect())
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}
