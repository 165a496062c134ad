package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type SQLOptions struct {
	Driver   string `cfg:"driver" def:"mysql" validate:"oneof=mysql sqlite3"`
	DSN      string `cfg:"dsn"`
	Host     string `cfg:"host" def:"localhost"`
	Port     string `cfg:"port" def:"3306"`
	Database string `cfg:"database"`
	Username string `cfg:"username"`
	Password string `cfg:"password"`
	Charset  string `cfg:"charset" def:"utf8mb4"`
	MaxConns int    `cfg:"maxConns" def:"10"`
	MaxIdle  int    `cfg:"maxIdle" def:"5"`
}

// SQL 基于 database/sql 的执行器
type SQL struct {
	db     *sql.DB
	driver string
}

// BuildDSN 未配置 DSN 时按驱动拼装
func BuildDSN(options *SQLOptions) (string, error) {
	if options.DSN != "" {
		return options.DSN, nil
	}
	switch options.Driver {
	case "mysql":
		c := mysql.NewConfig()
		c.User = options.Username
		c.Passwd = options.Password
		c.Net = "tcp"
		c.Addr = net.JoinHostPort(options.Host, options.Port)
		c.DBName = options.Database
		c.ParseTime = true
		if options.Charset != "" {
			c.Params = map[string]string{"charset": options.Charset}
		}
		return c.FormatDSN(), nil
	case "sqlite3":
		return options.Database, nil
	}
	return "", errors.Errorf("unsupported driver: %s", options.Driver)
}

func NewSQLWithOptions(options *SQLOptions) (*SQL, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	dsn, err := BuildDSN(options)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(options.Driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "sql.Open %s failed", options.Driver)
	}

	if options.MaxConns > 0 {
		db.SetMaxOpenConns(options.MaxConns)
	}
	if options.MaxIdle > 0 {
		db.SetMaxIdleConns(options.MaxIdle)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping database failed")
	}

	return &SQL{db: db, driver: options.Driver}, nil
}

// NewSQLWithDB 包装已打开的连接池
func NewSQLWithDB(db *sql.DB, driver string) *SQL {
	return &SQL{db: db, driver: driver}
}

func (s *SQL) DB() *sql.DB {
	return s.db
}

func (s *SQL) Driver() string {
	return s.driver
}

func (s *SQL) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "exec failed")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "RowsAffected failed")
	}
	return n, nil
}

func (s *SQL) ExecInsert(ctx context.Context, query string, args ...any) (any, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "exec insert failed")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "LastInsertId failed")
	}
	return id, nil
}

func (s *SQL) Query(ctx context.Context, query string, args ...any) (RowSet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query failed")
	}
	return readRows(rows)
}

func (s *SQL) TableColumns(ctx context.Context, table string) ([]string, error) {
	var query string
	var args []any
	switch s.driver {
	case "sqlite3":
		query = fmt.Sprintf("SELECT name FROM pragma_table_info('%s')", strings.ReplaceAll(table, "'", "''"))
	case "mysql":
		query = "SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position"
		args = []any{table}
	default:
		return nil, errors.Errorf("unsupported driver: %s", s.driver)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "read columns of %s failed", table)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "rows.Scan failed")
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows.Next failed")
	}
	if len(columns) == 0 {
		return nil, errors.Wrap(ErrTableNotFound, table)
	}
	return columns, nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}
