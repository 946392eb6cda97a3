package storefront

import "fmt"

// Section is the dashboard panel currently displayed. Any section is reachable
// from any other.
type Section string

const (
	SectionOverview Section = "overview"
	SectionProducts Section = "products"
	SectionOrders   Section = "orders"
	SectionRequests Section = "requests"
	SectionMessages Section = "messages"
)

// Sections lists the dashboard panels in navigation order.
func Sections() []Section {
	return []Section{SectionOverview, SectionProducts, SectionOrders, SectionRequests, SectionMessages}
}

// ParseSection validates a section name.
func ParseSection(value string) (Section, error) {
	for _, s := range Sections() {
		if string(s) == value {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownSection, value)
}

// SelectSection switches the displayed panel. Any panel other than products
// cancels the product form without saving.
func (d *Dashboard) SelectSection(section Section) error {
	if _, err := ParseSection(string(section)); err != nil {
		return err
	}
	d.mu.Lock()
	d.section = section
	d.mu.Unlock()
	if section != SectionProducts {
		d.form.Cancel()
	}
	return nil
}

// showProducts moves to the products panel without touching the form.
func (d *Dashboard) showProducts() {
	d.mu.Lock()
	d.section = SectionProducts
	d.mu.Unlock()
}

// Section returns the displayed panel.
func (d *Dashboard) Section() Section {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.section
}
