package mapping

import (
	"reflect"
	"sort"
	"strings"

	"github.com/viablespark/persist/rdb/model"
)

// InsertClause INSERT 语句的列与占位符部分
type InsertClause struct {
	Columns      string // (a,b,c)
	Placeholders string // VALUES (?,?,?)
	Values       []any
}

func (c *InsertClause) SQL() string {
	return c.Columns + " " + c.Placeholders
}

// UpdateClause UPDATE 语句的 SET 与 WHERE 部分
type UpdateClause struct {
	Set    string // SET a=?,b=?
	Where  string // WHERE id=?
	Values []any  // SET 值在前，主键值在最后
}

func (c *UpdateClause) SQL() string {
	return c.Set + " " + c.Where
}

type columnValue struct {
	column string
	value  any
}

// BuildInsert 生成不含主键列的插入子句，列按字典序排列
func BuildInsert(desc *Descriptor, entity any) (*InsertClause, error) {
	pairs, err := writeValues(desc, entity)
	if err != nil {
		return nil, err
	}
	return newInsertClause(desc, pairs)
}

// BuildInsertWithKey 生成包含主键列的插入子句，用于应用侧分配的主键
func BuildInsertWithKey(desc *Descriptor, entity any, key model.Key) (*InsertClause, error) {
	if key.IsNone() {
		return nil, newMappingError(desc.Type, desc.PrimaryKey, "cannot insert with key None")
	}
	pairs, err := writeValues(desc, entity)
	if err != nil {
		return nil, err
	}
	pairs = append(pairs, columnValue{column: desc.PrimaryKey, value: key.Value()})
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].column < pairs[j].column
	})
	return newInsertClause(desc, pairs)
}

func newInsertClause(desc *Descriptor, pairs []columnValue) (*InsertClause, error) {
	if len(pairs) == 0 {
		return nil, newMappingError(desc.Type, "", "no columns to insert")
	}

	columns := make([]string, len(pairs))
	placeholders := make([]string, len(pairs))
	values := make([]any, len(pairs))
	for i, p := range pairs {
		columns[i] = p.column
		placeholders[i] = "?"
		values[i] = p.value
	}

	return &InsertClause{
		Columns:      "(" + strings.Join(columns, ",") + ")",
		Placeholders: "VALUES (" + strings.Join(placeholders, ",") + ")",
		Values:       values,
	}, nil
}

// BuildUpdate 生成按主键更新的子句，实体主键为 None 时返回 MappingError
func BuildUpdate(desc *Descriptor, entity any) (*UpdateClause, error) {
	key, err := desc.KeyOf(entity)
	if err != nil {
		return nil, err
	}
	if key.IsNone() {
		return nil, newMappingError(desc.Type, desc.PrimaryKey, "cannot update an entity without a key")
	}

	pairs, err := writeValues(desc, entity)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, newMappingError(desc.Type, "", "no columns to update")
	}

	sets := make([]string, len(pairs))
	values := make([]any, 0, len(pairs)+1)
	for i, p := range pairs {
		sets[i] = p.column + "=?"
		values = append(values, p.value)
	}
	values = append(values, key.Value())

	return &UpdateClause{
		Set:    "SET " + strings.Join(sets, ","),
		Where:  "WHERE " + desc.PrimaryKey + "=?",
		Values: values,
	}, nil
}

// SelectColumns 主键列在前，其余可写列按字典序
func SelectColumns(desc *Descriptor) string {
	return strings.Join(append([]string{desc.PrimaryKey}, desc.Columns()...), ",")
}

func writeValues(desc *Descriptor, entity any) ([]columnValue, error) {
	ptr, err := desc.pointer(entity)
	if err != nil {
		return nil, err
	}

	pairs := make([]columnValue, 0, len(desc.writes))
	for _, f := range desc.writes {
		field := f.addr(ptr)
		var value any
		switch {
		case f.Kind == KindScalar:
			value = bindValue(field)
		case f.IsRefValue():
			value = refValueOf(field)
		default:
			value = referenceKeyOf(field)
		}
		pairs = append(pairs, columnValue{column: f.Column, value: value})
	}
	return pairs, nil
}

func refValueOf(field reflect.Value) any {
	if field.IsNil() {
		return nil
	}
	ref := field.Interface().(*model.RefValue).Ref
	if ref.IsNone() {
		return nil
	}
	return ref.Value()
}

func referenceKeyOf(field reflect.Value) any {
	if field.IsNil() {
		return nil
	}
	key := field.Interface().(model.Persistable).Key()
	if key.IsNone() {
		return nil
	}
	return key.Value()
}
