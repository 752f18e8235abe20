package storage

// Dialect SQL方言接口（对外导出）
// 封装不同数据库的SQL语法差异
type Dialect interface {
	// Name 返回方言名称（如 "sqlite", "mysql", "postgres"）
	Name() string

	// Placeholder 返回指定位置的占位符
	// SQLite/MySQL: ? (忽略index)
	// PostgreSQL: $1, $2, ...
	Placeholder(index int) string

	// UpsertSQL 返回INSERT或UPDATE的SQL语句
	UpsertSQL(tableName string, columns []string, conflictColumn string, updateColumns []string) string

	// CreateTableSQL 返回创建表的DDL语句
	CreateTableSQL(schema string) string

	// ConfigureDB 配置数据库连接（如SQLite的PRAGMA）
	ConfigureDB() []string

	// AutoIncrementKeyword 返回自增主键关键字
	AutoIncrementKeyword() string

	// BooleanType 返回布尔类型
	BooleanType() string

	// TextType 返回文本类型
	TextType() string

	// TimestampType 返回时间戳类型
	TimestampType() string

	// FloatType 返回浮点类型
	FloatType() string
}
