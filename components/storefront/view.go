package storefront

// ProductFormView is the template-facing projection of the product form.
type ProductFormView struct {
	Open        bool   `json:"open"`
	Editing     bool   `json:"editing"`
	ProductID   ID     `json:"product_id,omitempty"`
	Title       string `json:"title"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
	HasImage    bool   `json:"has_image"`
}

// View is a snapshot of everything the dashboard renders. When Authorized is
// false only Redirect is populated.
type View struct {
	Authorized bool                `json:"authorized"`
	Redirect   string              `json:"redirect,omitempty"`
	Identity   *Identity           `json:"identity,omitempty"`
	Section    Section             `json:"section"`
	Sections   []Section           `json:"sections"`
	Success    *Notice             `json:"success,omitempty"`
	Error      *Notice             `json:"error,omitempty"`
	LoadErrors map[Resource]string `json:"load_errors,omitempty"`
	Counts     map[Resource]int    `json:"counts"`
	Products   []Product           `json:"products"`
	Orders     []OrderRow          `json:"orders"`
	Requests   []Request           `json:"requests"`
	Messages   []Message           `json:"messages"`
	Statuses   []OrderStatus       `json:"statuses"`
	Form       ProductFormView     `json:"form"`
}

// View captures the current dashboard state.
func (d *Dashboard) View() View {
	d.mu.Lock()
	authorized := d.authorized
	identity := d.identity
	section := d.section
	success := cloneNotice(d.success)
	failure := cloneNotice(d.failure)
	d.mu.Unlock()

	if !authorized {
		return View{Authorized: false, Redirect: d.opts.LoginPath}
	}

	view := View{
		Authorized: true,
		Identity:   &identity,
		Section:    section,
		Sections:   Sections(),
		Success:    success,
		Error:      failure,
		Counts:     d.store.Counts(),
		Products:   d.store.Products().Rows,
		Orders:     d.store.OrderRows(),
		Requests:   d.store.Requests().Rows,
		Messages:   d.store.Messages().Rows,
		Statuses:   OrderStatuses(),
		Form:       formView(d.form.State()),
	}
	for _, r := range Resources() {
		if d.store.Err(r) == nil {
			continue
		}
		if view.LoadErrors == nil {
			view.LoadErrors = map[Resource]string{}
		}
		view.LoadErrors[r] = loadFailureText(r)
	}
	return view
}

func formView(state ProductFormState) ProductFormView {
	v := ProductFormView{
		Open:        state.Open,
		Title:       "Add New Product",
		Name:        state.Name,
		Price:       state.Price,
		Description: state.Description,
		HasImage:    state.Image != nil,
	}
	if p, ok := state.EditingProduct(); ok {
		v.Editing = true
		v.ProductID = p.ID
		v.Title = "Edit Product"
	}
	return v
}

func cloneNotice(n *Notice) *Notice {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}
