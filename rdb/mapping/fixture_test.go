package mapping

import (
	"strings"

	"github.com/viablespark/persist/rdb/model"
)

type Note struct {
	model.Model `table:"note" pk:"n_key"`
	Text        string `rdb:"text"`
}

type PurchaseOrder struct {
	model.Model `table:"purchase_order" pk:"id"`
	Requester   string          `rdb:"requester"`
	PoNumberID  int64           `rdb:"po_number_id"`
	PrimitiveID int             `rdb:"primitive_id"`
	LongID      *int64          `rdb:"long_id"`
	Note        *Note           `rdb:",ref"`
	Supplier    *model.RefValue `rdb:"supplier_id,ref,label=supplier_name"`
	Transient   string          `rdb:"-"`
}

type Customer struct {
	model.Model `table:"customer" pk:"id"`
	Name        string `rdb:"name"`
}

type Order struct {
	model.Model `table:"orders" pk:"id"`
	Title       string    `rdb:"title"`
	Customer    *Customer `rdb:"customer_id,ref,prefix=c_"`
}

type Employee struct {
	model.Model `table:"employee" pk:"id"`
	Name        string    `rdb:"name"`
	Manager     *Employee `rdb:"manager_id,ref"`
}

func newPurchaseOrder() *PurchaseOrder {
	longID := int64(99)
	po := &PurchaseOrder{
		Requester:   "Kotlin Request",
		PoNumberID:  55,
		PrimitiveID: 77,
		LongID:      &longID,
		Note:        &Note{Text: "note"},
		Supplier:    model.NewRefValue(model.Of("supplier_id", 42), nil),
	}
	po.Note.SetKey(model.Of("n_key", 1))
	po.SetKey(model.Of("id", 5))
	return po
}

type testRow struct {
	index  int
	values map[string]any
}

func newRow(values map[string]any) *testRow {
	lower := make(map[string]any, len(values))
	for k, v := range values {
		lower[strings.ToLower(k)] = v
	}
	return &testRow{index: 1, values: lower}
}

func (r *testRow) Column(name string) (any, bool) {
	v, ok := r.values[strings.ToLower(name)]
	return v, ok
}

func (r *testRow) RowIndex() int {
	return r.index
}
