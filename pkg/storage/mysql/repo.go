package mysql

import (
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/croningp/NanoDiscovery/pkg/storage"
)

// OpenRunEventRepo 打开MySQL运行事件Repository（对外导出）
// dsn格式: user:password@tcp(host:port)/dbname?parseTime=true
func OpenRunEventRepo(dsn string) (*storage.SQLRunEventRepo, error) {
	// 确保DSN包含parseTime=true，否则DATETIME无法扫描为time.Time
	if !strings.Contains(dsn, "parseTime=true") {
		if strings.Contains(dsn, "?") {
			dsn += "&parseTime=true"
		} else {
			dsn += "?parseTime=true"
		}
	}

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	repo, err := storage.NewSQLRunEventRepo(db, NewMySQLDialect())
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}
