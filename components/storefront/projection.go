package storefront

// OrderRow is an order decorated with a display label for its product.
type OrderRow struct {
	Order
	ProductName  string `json:"product_name,omitempty"`
	ProductLabel string `json:"product_label"`
}

// projectOrders resolves product names from the loaded products collection
// first and the batch lookup second. Unresolved ids are shown verbatim.
func projectOrders(orders []Order, lookup map[ID]string, products []Product) []OrderRow {
	rows := make([]OrderRow, 0, len(orders))
	if len(orders) == 0 {
		return rows
	}
	loaded := make(map[ID]string, len(products))
	for _, p := range products {
		loaded[p.ID] = p.Name
	}
	for _, o := range orders {
		row := OrderRow{Order: o, ProductLabel: o.ProductID.String()}
		if name, ok := loaded[o.ProductID]; ok && name != "" {
			row.ProductName = name
		} else if name, ok := lookup[o.ProductID]; ok && name != "" {
			row.ProductName = name
		}
		if row.ProductName != "" {
			row.ProductLabel = row.ProductName
		}
		rows = append(rows, row)
	}
	return rows
}
