package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/viablespark/persist/log"
	"github.com/viablespark/persist/log/logger"
	"github.com/viablespark/persist/rdb/database"
	"github.com/viablespark/persist/rdb/mapping"
	"github.com/viablespark/persist/rdb/model"
	"github.com/viablespark/persist/rdb/query"
	"github.com/viablespark/persist/uid/intgen"
	"github.com/viablespark/persist/uid/strgen"
)

var ErrRecordNotFound = errors.New("record not found")

// RowMapperFunc 自定义的行映射，rowNum 从 1 开始，返回 nil 的行被忽略
type RowMapperFunc[T any] func(rs database.RowSet, rowNum int) (*T, error)

type Option func(*options)

type options struct {
	logger       logger.Logger
	keyGenerator func() any
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithKeyGenerator 插入前由生成器分配主键，不再使用数据库自增主键
func WithKeyGenerator(g intgen.IntGenerator) Option {
	return func(o *options) {
		o.keyGenerator = func() any { return g.Generate() }
	}
}

// WithStrKeyGenerator 同 WithKeyGenerator，用于字符串主键
func WithStrKeyGenerator(g strgen.StrGenerator) Option {
	return func(o *options) {
		o.keyGenerator = func() any { return g.Generate() }
	}
}

// FindOptions 查询选项
type FindOptions struct {
	Limit   int
	Offset  int
	OrderBy string
	Order   query.Direction
}

type FindOption func(*FindOptions)

func WithLimit(limit int) FindOption {
	return func(o *FindOptions) {
		o.Limit = limit
	}
}

func WithOffset(offset int) FindOption {
	return func(o *FindOptions) {
		o.Offset = offset
	}
}

func WithOrderBy(column string, direction query.Direction) FindOption {
	return func(o *FindOptions) {
		o.OrderBy = column
		o.Order = direction
	}
}

var spewConfig = spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                3,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
	SortKeys:                true,
}

// Repository 单个实体类型的持久化入口
type Repository[T any] struct {
	exec         database.Executor
	registry     *mapping.Registry
	desc         *mapping.Descriptor
	mapper       *mapping.RowMapper[T]
	logger       logger.Logger
	keyGenerator func() any
}

func NewRepository[T any](exec database.Executor, registry *mapping.Registry, opts ...Option) (*Repository[T], error) {
	if exec == nil {
		return nil, errors.New("executor cannot be nil")
	}
	if registry == nil {
		return nil, errors.New("registry cannot be nil")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}

	mapper, err := mapping.NewRowMapper[T](registry)
	if err != nil {
		return nil, errors.WithMessage(err, "resolve mapping failed")
	}
	desc := mapper.Descriptor()

	return &Repository[T]{
		exec:         exec,
		registry:     registry,
		desc:         desc,
		mapper:       mapper,
		logger:       o.logger.With("type", desc.Type.String(), "table", desc.Table),
		keyGenerator: o.keyGenerator,
	}, nil
}

func (r *Repository[T]) Descriptor() *mapping.Descriptor {
	return r.desc
}

// Save 主键为 None 时插入并回填主键，否则按主键更新
func (r *Repository[T]) Save(ctx context.Context, entity *T) (model.Key, error) {
	if entity == nil {
		return model.None, errors.New("entity cannot be nil")
	}
	key, err := r.desc.KeyOf(entity)
	if err != nil {
		return model.None, err
	}

	if key.IsNone() {
		key, err = r.insert(ctx, entity)
	} else {
		err = r.update(ctx, entity)
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "save entity failed", "key", key.String(), "entity", describe(entity), "error", err.Error())
		return model.None, errors.WithMessagef(err, "save %s", r.desc.Type)
	}
	return key, nil
}

func (r *Repository[T]) insert(ctx context.Context, entity *T) (model.Key, error) {
	if r.keyGenerator != nil {
		key := model.Of(r.desc.PrimaryKey, r.keyGenerator())
		clause, err := mapping.BuildInsertWithKey(r.desc, entity, key)
		if err != nil {
			return model.None, err
		}
		sql := fmt.Sprintf("INSERT INTO %s %s", r.desc.Table, clause.SQL())
		r.logger.DebugContext(ctx, "executing insert", "sql", sql, "values", clause.Values)
		if _, err := r.exec.Exec(ctx, sql, clause.Values...); err != nil {
			return model.None, err
		}
		if err := r.desc.SetKey(entity, key); err != nil {
			return model.None, err
		}
		return key, nil
	}

	clause, err := mapping.BuildInsert(r.desc, entity)
	if err != nil {
		return model.None, err
	}
	sql := fmt.Sprintf("INSERT INTO %s %s", r.desc.Table, clause.SQL())
	r.logger.DebugContext(ctx, "executing insert", "sql", sql, "values", clause.Values)
	id, err := r.exec.ExecInsert(ctx, sql, clause.Values...)
	if err != nil {
		return model.None, err
	}
	if id == nil {
		return model.None, errors.Errorf("no key generated for %s", r.desc.Table)
	}
	key := model.Of(r.desc.PrimaryKey, id)
	if err := r.desc.SetKey(entity, key); err != nil {
		return model.None, err
	}
	return key, nil
}

func (r *Repository[T]) update(ctx context.Context, entity *T) error {
	clause, err := mapping.BuildUpdate(r.desc, entity)
	if err != nil {
		return err
	}
	sql := fmt.Sprintf("UPDATE %s %s", r.desc.Table, clause.SQL())
	r.logger.DebugContext(ctx, "executing update", "sql", sql, "values", clause.Values)
	_, err = r.exec.Exec(ctx, sql, clause.Values...)
	return err
}

// Get 按主键读取，返回的实体携带传入的 key
func (r *Repository[T]) Get(ctx context.Context, key model.Key) (*T, error) {
	if key.IsNone() {
		return nil, errors.New("cannot get entity by a None key")
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", mapping.SelectColumns(r.desc), r.desc.Table, r.desc.PrimaryKey)
	r.logger.DebugContext(ctx, "executing get", "sql", sql, "key", key.String())

	rs, err := r.exec.Query(ctx, sql, key.Value())
	if err != nil {
		r.logger.ErrorContext(ctx, "get entity failed", "sql", sql, "key", key.String(), "error", err.Error())
		return nil, errors.WithMessagef(err, "get %s", r.desc.Type)
	}
	defer rs.Close()

	if !rs.Next() {
		if err := rs.Err(); err != nil {
			return nil, errors.WithMessagef(err, "get %s", r.desc.Type)
		}
		return nil, errors.Wrapf(ErrRecordNotFound, "%s %s", r.desc.Table, key)
	}
	entity, err := r.mapper.MapRow(rs)
	if err != nil {
		return nil, err
	}
	if err := r.desc.SetKey(entity, key); err != nil {
		return nil, err
	}
	return entity, nil
}

// Delete 按主键删除，返回影响行数
func (r *Repository[T]) Delete(ctx context.Context, entity *T) (int64, error) {
	if entity == nil {
		return 0, errors.New("entity cannot be nil")
	}
	key, err := r.desc.KeyOf(entity)
	if err != nil {
		return 0, err
	}
	if key.IsNone() {
		return 0, errors.Errorf("cannot delete unsaved %s", r.desc.Type)
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", r.desc.Table, r.desc.PrimaryKey)
	r.logger.DebugContext(ctx, "executing delete", "sql", sql, "key", key.String())
	n, err := r.exec.Exec(ctx, sql, key.Value())
	if err != nil {
		r.logger.ErrorContext(ctx, "delete entity failed", "entity", describe(entity), "error", err.Error())
		return 0, errors.WithMessagef(err, "delete %s", r.desc.Type)
	}
	return n, nil
}

// QueryEntity 以映射的列查询实体，q 为 FROM 之后的部分，如 WHERE、ORDER BY
func (r *Repository[T]) QueryEntity(ctx context.Context, q *query.SQLQuery) ([]*T, error) {
	if q == nil {
		q = query.New()
	}
	if pk := q.PrimaryKeyName(); pk != "" && !strings.EqualFold(pk, r.desc.PrimaryKey) {
		return nil, errors.Errorf("query primary key %s does not match %s.%s", pk, r.desc.Table, r.desc.PrimaryKey)
	}
	if err := query.AssertPlaceholderCount(q); err != nil {
		return nil, err
	}

	sql := strings.TrimSpace(fmt.Sprintf("SELECT %s FROM %s %s", mapping.SelectColumns(r.desc), r.desc.Table, q.SQL()))
	values := q.Values()
	return r.query(ctx, "queryEntity", sql, values, func(rs database.RowSet, _ int) (*T, error) {
		return r.mapper.MapRow(rs)
	})
}

// Query 执行完整的查询，每行交给 mapper 映射
func (r *Repository[T]) Query(ctx context.Context, q *query.SQLQuery, mapper RowMapperFunc[T]) ([]*T, error) {
	if q == nil {
		return nil, errors.New("query cannot be nil")
	}
	if mapper == nil {
		return nil, errors.New("mapper cannot be nil")
	}
	if err := query.AssertPlaceholderCount(q); err != nil {
		return nil, err
	}
	return r.query(ctx, "query", q.SQL(), q.Values(), mapper)
}

// Find 按条件节点查询实体，q 为 nil 时查询全部
func (r *Repository[T]) Find(ctx context.Context, q query.Query, opts ...FindOption) ([]*T, error) {
	o := &FindOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.Offset > 0 && o.Limit <= 0 {
		return nil, errors.New("offset requires a positive limit")
	}

	sq := query.New()
	if q != nil {
		sq.Filter(q)
	}
	if o.OrderBy != "" {
		sq.OrderByColumn(o.OrderBy, o.Order)
	}
	if o.Limit > 0 {
		sq.Limit(o.Limit)
	}
	if o.Offset > 0 {
		sq.Offset(o.Offset)
	}
	return r.QueryEntity(ctx, sq)
}

// Count 统计满足条件的行数，q 为 nil 时统计全部
func (r *Repository[T]) Count(ctx context.Context, q query.Query) (int64, error) {
	sq := query.New().Select("SELECT COUNT(*) AS total").From(r.desc.Table)
	if q != nil {
		sq.Filter(q)
	}
	sql, values, err := sq.Build()
	if err != nil {
		return 0, err
	}

	r.logger.DebugContext(ctx, "executing count", "sql", sql, "values", values)
	rs, err := r.exec.Query(ctx, sql, values...)
	if err != nil {
		return 0, errors.WithMessagef(err, "count %s", r.desc.Type)
	}
	defer rs.Close()

	if !rs.Next() {
		return 0, errors.Errorf("count %s returned no rows", r.desc.Type)
	}
	value, _ := rs.Column("total")
	n, ok := model.Of("total", value).Int64()
	if !ok {
		return 0, errors.Errorf("unexpected count value %v (%T)", value, value)
	}
	return n, nil
}

func (r *Repository[T]) query(ctx context.Context, op string, sql string, values []any, mapper RowMapperFunc[T]) ([]*T, error) {
	r.logger.DebugContext(ctx, "executing "+op, "sql", sql, "values", values)

	rs, err := r.exec.Query(ctx, sql, values...)
	if err != nil {
		r.logger.ErrorContext(ctx, op+" failed", "sql", sql, "values", values, "error", err.Error())
		return nil, errors.WithMessagef(err, "%s %s", op, r.desc.Type)
	}
	defer rs.Close()

	var entities []*T
	for rs.Next() {
		entity, err := mapper(rs, rs.RowIndex())
		if err != nil {
			return nil, errors.WithMessagef(err, "%s %s", op, r.desc.Type)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	if err := rs.Err(); err != nil {
		return nil, errors.WithMessagef(err, "%s %s", op, r.desc.Type)
	}
	return entities, nil
}

func describe(entity any) string {
	if entity == nil {
		return "<nil entity>"
	}
	return spewConfig.Sdump(entity)
}
