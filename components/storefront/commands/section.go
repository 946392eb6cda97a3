package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-storefront/components/storefront"
)

// SelectSectionInput names the panel to display.
type SelectSectionInput struct {
	SessionID string `json:"-"`
	Section   string `json:"section"`
}

type sectionService interface {
	SelectSection(ctx context.Context, section storefront.Section) error
}

// SelectSectionCommand switches the dashboard panel.
type SelectSectionCommand struct {
	service sectionService
}

// NewSelectSectionCommand builds the command.
func NewSelectSectionCommand(service sectionService) *SelectSectionCommand {
	return &SelectSectionCommand{service: service}
}

var _ gocommand.Commander[SelectSectionInput] = (*SelectSectionCommand)(nil)

// Execute switches sections.
func (c *SelectSectionCommand) Execute(ctx context.Context, msg SelectSectionInput) error {
	if c.service == nil {
		return errors.New("section command requires service")
	}
	section, err := storefront.ParseSection(msg.Section)
	if err != nil {
		return err
	}
	return c.service.SelectSection(withSession(ctx, msg.SessionID), section)
}
