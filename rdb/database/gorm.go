package database

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type GormOptions struct {
	// 数据库驱动：mysql, sqlite
	Driver string `cfg:"driver" def:"mysql" validate:"oneof=mysql sqlite"`
	DSN    string `cfg:"dsn" validate:"required"`
	// 是否输出 gorm 自身的 SQL 日志
	Debug    bool `cfg:"debug"`
	MaxConns int  `cfg:"maxConns" def:"10"`
	MaxIdle  int  `cfg:"maxIdle" def:"5"`
}

// Gorm 基于 gorm 连接的执行器，只使用 gorm 的原生 SQL 接口
type Gorm struct {
	db *gorm.DB
}

func NewGormWithOptions(options *GormOptions) (*Gorm, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}

	config := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if options.Debug {
		config.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	var dialector gorm.Dialector
	switch options.Driver {
	case "mysql":
		dialector = mysql.Open(options.DSN)
	case "sqlite":
		dialector = sqlite.Open(options.DSN)
	default:
		return nil, errors.Errorf("unsupported database driver: %s", options.Driver)
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sql.DB")
	}
	if options.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(options.MaxConns)
	}
	if options.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(options.MaxIdle)
	}

	return &Gorm{db: db}, nil
}

func NewGormWithDB(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) DB() *gorm.DB {
	return g.db
}

func (g *Gorm) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	result := g.db.WithContext(ctx).Exec(query, args...)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "exec failed")
	}
	return result.RowsAffected, nil
}

// ExecInsert gorm 的 Exec 不暴露 LastInsertId，直接使用底层连接池
func (g *Gorm) ExecInsert(ctx context.Context, query string, args ...any) (any, error) {
	sqlDB, err := g.db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sql.DB")
	}
	result, err := sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "exec insert failed")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "LastInsertId failed")
	}
	return id, nil
}

func (g *Gorm) Query(ctx context.Context, query string, args ...any) (RowSet, error) {
	rows, err := g.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, errors.Wrap(err, "query failed")
	}
	return readRows(rows)
}

func (g *Gorm) TableColumns(ctx context.Context, table string) ([]string, error) {
	migrator := g.db.WithContext(ctx).Migrator()
	if !migrator.HasTable(table) {
		return nil, errors.Wrap(ErrTableNotFound, table)
	}
	types, err := migrator.ColumnTypes(table)
	if err != nil {
		return nil, errors.Wrapf(err, "read columns of %s failed", table)
	}
	columns := make([]string, 0, len(types))
	for _, t := range types {
		columns = append(columns, t.Name())
	}
	return columns, nil
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB")
	}
	return sqlDB.Close()
}
