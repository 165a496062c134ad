package model

// Persistable 所有映射实体的身份契约
type Persistable interface {
	Key() Key
	SetKey(key Key)
}

// Model 可嵌入的实体基类，独占一个 Key
//
// 类型级元数据通过嵌入字段的 tag 声明：
//
//	type PurchaseOrder struct {
//		model.Model `table:"purchase_order" pk:"id"`
//		Requester *string `rdb:"requester"`
//	}
type Model struct {
	key Key
}

func (m *Model) Key() Key {
	return m.key
}

// SetKey 整体替换主键
func (m *Model) SetKey(key Key) {
	m.key = key
}

// IsNew 实体是否尚未持久化
func (m *Model) IsNew() bool {
	return m.key.IsNone()
}
