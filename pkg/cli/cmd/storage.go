package cmd

import (
	"fmt"

	"github.com/croningp/NanoDiscovery/pkg/config"
	"github.com/croningp/NanoDiscovery/pkg/storage"
	"github.com/croningp/NanoDiscovery/pkg/storage/mysql"
	"github.com/croningp/NanoDiscovery/pkg/storage/postgres"
	"github.com/croningp/NanoDiscovery/pkg/storage/sqlite"
)

// openRepo 按配置打开运行事件Repository
// 数据库后端在命令层选择，storage包本身不依赖具体驱动
func openRepo(cfg *config.PlatformConfig) (storage.RunEventRepository, error) {
	db := cfg.Database
	switch db.Type {
	case "", "sqlite":
		return sqlite.OpenRunEventRepo(db.Path)
	case "postgres":
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			db.User, db.Password, db.Host, db.Port, db.DBName)
		return postgres.OpenRunEventRepo(dsn)
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
			db.User, db.Password, db.Host, db.Port, db.DBName)
		return mysql.OpenRunEventRepo(dsn)
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s", db.Type)
	}
}
