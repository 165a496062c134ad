package schema

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/viablespark/persist/rdb/database"
	"github.com/viablespark/persist/rdb/mapping"
)

// ValidationError 所有映射与表结构不一致的地方
type ValidationError struct {
	Failures []string
}

func (e *ValidationError) Error() string {
	return "schema validation failed:\n" + strings.Join(e.Failures, "\n")
}

// AssertMappings 校验每个类型的表存在，且包含主键列和全部可写列，列名大小写不敏感
// types 的元素为 reflect.Type 或实体值（可以是指针）
func AssertMappings(ctx context.Context, inspector database.TableInspector, registry *mapping.Registry, types ...any) error {
	if inspector == nil {
		return errors.New("inspector cannot be nil")
	}
	if registry == nil {
		return errors.New("registry cannot be nil")
	}

	var failures []string
	for _, v := range types {
		t, ok := v.(reflect.Type)
		if !ok {
			t = reflect.TypeOf(v)
		}

		desc, err := registry.Resolve(t)
		if err != nil {
			failures = append(failures, fmt.Sprintf("- Mapping for %v is invalid: %v", t, err))
			continue
		}

		columns, err := inspector.TableColumns(ctx, desc.Table)
		if errors.Is(err, database.ErrTableNotFound) {
			failures = append(failures, fmt.Sprintf("- Table '%s' for entity %s not found", desc.Table, desc.Type))
			continue
		}
		if err != nil {
			return errors.WithMessagef(err, "read columns of %s", desc.Table)
		}

		existing := make(map[string]struct{}, len(columns))
		for _, c := range columns {
			existing[strings.ToLower(c)] = struct{}{}
		}
		expected := append([]string{desc.PrimaryKey}, desc.Columns()...)
		for _, c := range expected {
			if _, ok := existing[strings.ToLower(c)]; !ok {
				failures = append(failures, fmt.Sprintf("- Column '%s' required by %s is missing in table '%s'", c, desc.Type, desc.Table))
			}
		}
	}

	if len(failures) > 0 {
		return errors.WithStack(&ValidationError{Failures: failures})
	}
	return nil
}
