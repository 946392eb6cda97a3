package storefront

import (
	"context"
	"fmt"
)

var deleteNoticeKeys = map[Resource]string{
	ResourceProducts: "storefront.product.deleted",
	ResourceOrders:   "storefront.order.deleted",
	ResourceRequests: "storefront.request.deleted",
	ResourceMessages: "storefront.message.deleted",
}

// Delete removes one row. On success the owning collection is reloaded once;
// on failure the row stays and the backend's message becomes the error notice.
func (d *Dashboard) Delete(ctx context.Context, resource Resource, id ID) error {
	if !resource.Valid() {
		return fmt.Errorf("storefront: delete %q: %w", resource, errUnknownResource)
	}
	if id.IsZero() {
		return errMissingID
	}
	return d.mutate(ctx, resource, id, deleteNoticeKeys[resource], "delete", nil, func(ctx context.Context) error {
		return d.opts.Data.Delete(ctx, resource.Table(), id)
	})
}

// DeleteProduct removes a product.
func (d *Dashboard) DeleteProduct(ctx context.Context, id ID) error {
	return d.Delete(ctx, ResourceProducts, id)
}

// DeleteOrder removes an order.
func (d *Dashboard) DeleteOrder(ctx context.Context, id ID) error {
	return d.Delete(ctx, ResourceOrders, id)
}

// DeleteRequest removes a customer request.
func (d *Dashboard) DeleteRequest(ctx context.Context, id ID) error {
	return d.Delete(ctx, ResourceRequests, id)
}

// DeleteMessage removes a contact message.
func (d *Dashboard) DeleteMessage(ctx context.Context, id ID) error {
	return d.Delete(ctx, ResourceMessages, id)
}

// UpdateOrderStatus sets an order's status. Any status may follow any other.
func (d *Dashboard) UpdateOrderStatus(ctx context.Context, id ID, status OrderStatus) error {
	status, err := ParseOrderStatus(string(status))
	if err != nil {
		return err
	}
	if id.IsZero() {
		return errMissingID
	}
	meta := map[string]any{"status": string(status)}
	return d.mutate(ctx, ResourceOrders, id, "storefront.order.status", "status", meta, func(ctx context.Context) error {
		return d.opts.Data.Update(ctx, ResourceOrders.Table(), id, Record{"status": string(status)})
	})
}

func (d *Dashboard) mutate(
	ctx context.Context,
	resource Resource,
	id ID,
	noticeKey string,
	reason string,
	meta map[string]any,
	write func(context.Context) error,
) error {
	if err := d.requireSession(); err != nil {
		return err
	}
	if d.opts.Data == nil {
		return errMissingDataStore
	}
	d.beginAction()
	if err := write(ctx); err != nil {
		d.fail(err)
		d.opts.Telemetry.Record(ctx, "storefront.mutation.error", map[string]any{
			"resource": string(resource),
			"id":       id.String(),
			"reason":   reason,
			"error":    err.Error(),
		})
		return err
	}
	d.succeed(ctx, noticeKey)
	d.opts.Telemetry.Record(ctx, "storefront.mutation", map[string]any{
		"resource": string(resource),
		"id":       id.String(),
		"reason":   reason,
	})
	d.emitActivity(ctx, fmt.Sprintf("storefront.%s.%s", resource, reason), string(resource), id, meta)
	d.notify(ctx, Event{Resource: resource, ID: id, Reason: reason})
	d.reload(ctx, resource)
	return nil
}

// OpenProductForm opens an empty form for a new product on the products panel.
func (d *Dashboard) OpenProductForm() error {
	if err := d.requireSession(); err != nil {
		return err
	}
	d.showProducts()
	d.form.OpenCreate()
	return nil
}

// EditProduct loads a product into the form in edit mode and shows the
// products panel.
func (d *Dashboard) EditProduct(product Product) error {
	if err := d.requireSession(); err != nil {
		return err
	}
	d.showProducts()
	d.form.Edit(product)
	return nil
}

// EditProductByID looks the product up in the loaded collection and edits it.
func (d *Dashboard) EditProductByID(id ID) error {
	for _, p := range d.store.Products().Rows {
		if p.ID == id {
			return d.EditProduct(p)
		}
	}
	return ErrProductNotFound
}

// SetProductFields records the values typed into the form.
func (d *Dashboard) SetProductFields(input ProductFormInput) error {
	if err := d.requireSession(); err != nil {
		return err
	}
	d.form.SetFields(input)
	return nil
}

// CancelProductForm discards the form without writing.
func (d *Dashboard) CancelProductForm() {
	d.form.Cancel()
}

// SubmitProduct writes the form as an insert or an update and reloads products
// once on success. Upload failures abort before any write.
func (d *Dashboard) SubmitProduct(ctx context.Context) error {
	if err := d.requireSession(); err != nil {
		return err
	}
	d.beginAction()
	editing, isEdit := d.form.State().EditingProduct()
	key, err := d.form.Submit(ctx)
	if err != nil {
		d.fail(err)
		return err
	}
	d.succeed(ctx, key)
	reason := "insert"
	var id ID
	if isEdit {
		reason = "update"
		id = editing.ID
	}
	d.emitActivity(ctx, "storefront.products."+reason, string(ResourceProducts), id, nil)
	d.notify(ctx, Event{Resource: ResourceProducts, ID: id, Reason: reason})
	d.reload(ctx, ResourceProducts)
	return nil
}
