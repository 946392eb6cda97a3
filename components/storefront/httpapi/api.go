package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-storefront/components/storefront"
	"github.com/goliatone/go-storefront/components/storefront/commands"
	"github.com/goliatone/go-storefront/components/storefront/queries"
)

// Handlers exposes the storefront operations backed by shared commands and
// queries. Admin handlers expect the session to be bound to the request
// context already.
type Handlers struct {
	Delete     gocommand.Commander[commands.DeleteRecordInput]
	Status     gocommand.Commander[commands.UpdateOrderStatusInput]
	Section    gocommand.Commander[commands.SelectSectionInput]
	Form       gocommand.Commander[commands.ProductFormInput]
	Save       gocommand.Commander[commands.SaveProductInput]
	Refresh    gocommand.Commander[commands.RefreshInput]
	PlaceOrder gocommand.Commander[storefront.PlaceOrderInput]
	Request    gocommand.Commander[storefront.RequestInput]
	Contact    gocommand.Commander[storefront.ContactInput]
	View       gocommand.Querier[queries.ViewInput, storefront.View]
	Products   gocommand.Querier[storefront.CatalogQuery, []storefront.Product]
	Product    gocommand.Querier[queries.ProductInput, storefront.Product]
	Categories gocommand.Querier[struct{}, []storefront.Category]

	// Redirect, when set, sends browser form posts back to this path instead
	// of answering with JSON. The dashboard shows the outcome as a notice.
	Redirect string
	// LoginPath receives browser requests whose session has ended.
	LoginPath string
}

// CommandHandlers wires every handler to the session manager and catalog.
func CommandHandlers(manager *storefront.SessionManager, catalog *storefront.Catalog, telemetry commands.Telemetry) *Handlers {
	h := &Handlers{
		Delete:  commands.NewDeleteRecordCommand(manager, telemetry),
		Status:  commands.NewUpdateOrderStatusCommand(manager, telemetry),
		Section: commands.NewSelectSectionCommand(manager),
		Form:    commands.NewProductFormCommand(manager),
		Save:    commands.NewSaveProductCommand(manager, telemetry),
		Refresh: commands.NewRefreshCommand(manager),
		View:    queries.NewDashboardViewQuery(manager),
	}
	if catalog != nil {
		h.PlaceOrder = commands.NewPlaceOrderCommand(catalog, telemetry)
		h.Request = commands.NewSubmitRequestCommand(catalog, telemetry)
		h.Contact = commands.NewSendMessageCommand(catalog, telemetry)
		h.Products = queries.NewCatalogQuery(catalog)
		h.Product = queries.NewProductQuery(catalog)
		h.Categories = queries.NewCategoriesQuery(catalog)
	}
	return h
}

// HandleState writes the dashboard view as JSON.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	view, err := h.View.Query(r.Context(), queries.ViewInput{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleListProducts writes the filtered catalog as JSON.
func (h *Handlers) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Products.Query(r.Context(), catalogQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// HandleProduct writes one product as JSON.
func (h *Handlers) HandleProduct(w http.ResponseWriter, r *http.Request, id string) {
	product, err := h.Product.Query(r.Context(), queries.ProductInput{ID: storefront.ID(id)})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// HandleCategories writes the read-only category list as JSON.
func (h *Handlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Categories.Query(r.Context(), struct{}{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// HandleDelete removes a record named by the resource and id path values.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request, resource, id string) {
	input := commands.DeleteRecordInput{Resource: storefront.Resource(resource), ID: storefront.ID(id)}
	if !input.Resource.Valid() {
		http.Error(w, "unknown resource", http.StatusNotFound)
		return
	}
	h.execute(w, r, http.StatusOK, func(ctx context.Context) error {
		return h.Delete.Execute(ctx, input)
	})
}

// HandleOrderStatus changes an order's status.
func (h *Handlers) HandleOrderStatus(w http.ResponseWriter, r *http.Request, id string) {
	var payload commands.UpdateOrderStatusInput
	if err := decodeInput(r, &payload, "status"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.OrderID = storefront.ID(id)
	h.execute(w, r, http.StatusOK, func(ctx context.Context) error {
		return h.Status.Execute(ctx, payload)
	})
}

// HandleSection switches the active panel.
func (h *Handlers) HandleSection(w http.ResponseWriter, r *http.Request) {
	var payload commands.SelectSectionInput
	if err := decodeInput(r, &payload, "section"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.execute(w, r, http.StatusOK, func(ctx context.Context) error {
		return h.Section.Execute(ctx, payload)
	})
}

// HandleProductForm opens, edits or cancels the product form.
func (h *Handlers) HandleProductForm(w http.ResponseWriter, r *http.Request, action, id string) {
	input := commands.ProductFormInput{Action: action, ProductID: storefront.ID(id)}
	h.execute(w, r, http.StatusOK, func(ctx context.Context) error {
		return h.Form.Execute(ctx, input)
	})
}

// HandleSaveProduct submits the product form. Multipart bodies may carry an
// image file under the "image" field.
func (h *Handlers) HandleSaveProduct(w http.ResponseWriter, r *http.Request) {
	input, err := productInput(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.execute(w, r, http.StatusCreated, func(ctx context.Context) error {
		return h.Save.Execute(ctx, commands.SaveProductInput{ProductFormInput: input})
	})
}

// HandleRefresh reloads every collection, or only clears banners when
// dismiss is set.
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request, dismiss bool) {
	h.execute(w, r, http.StatusAccepted, func(ctx context.Context) error {
		return h.Refresh.Execute(ctx, commands.RefreshInput{DismissOnly: dismiss})
	})
}

// HandlePlaceOrder records an order for the product in the path.
func (h *Handlers) HandlePlaceOrder(w http.ResponseWriter, r *http.Request, productID string) {
	var payload storefront.PlaceOrderInput
	if err := decodeInput(r, &payload, "customer_name", "message"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.ProductID = storefront.ID(productID)
	h.execute(w, r, http.StatusCreated, func(ctx context.Context) error {
		return h.PlaceOrder.Execute(ctx, payload)
	})
}

// HandleSubmitRequest records a customer inquiry.
func (h *Handlers) HandleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var payload storefront.RequestInput
	if err := decodeInput(r, &payload, "customer_name", "message"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.execute(w, r, http.StatusCreated, func(ctx context.Context) error {
		return h.Request.Execute(ctx, payload)
	})
}

// HandleContact records a contact message.
func (h *Handlers) HandleContact(w http.ResponseWriter, r *http.Request) {
	var payload storefront.ContactInput
	if err := decodeInput(r, &payload, "name", "email", "message"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.execute(w, r, http.StatusCreated, func(ctx context.Context) error {
		return h.Contact.Execute(ctx, payload)
	})
}

func (h *Handlers) execute(w http.ResponseWriter, r *http.Request, status int, run func(context.Context) error) {
	err := run(r.Context())
	if h.Redirect != "" && !wantsJSON(r) {
		target := h.Redirect
		if StatusFor(err) == http.StatusUnauthorized && h.LoginPath != "" {
			target = h.LoginPath
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, map[string]string{"status": "ok"})
}

// StatusFor maps storefront errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, storefront.ErrUnauthenticated), errors.Is(err, storefront.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, storefront.ErrProductNotFound):
		return http.StatusNotFound
	case storefront.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
