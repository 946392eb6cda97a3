// Package usersink forwards storefront activity into a go-users activity sink.
package usersink

import (
	"context"
	"errors"
	"maps"

	"github.com/goliatone/go-storefront/pkg/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

var errMissingSink = errors.New("usersink: activity sink not configured")

// Sink is the subset of the go-users activity sink used here.
type Sink interface {
	Log(ctx context.Context, record types.ActivityRecord) error
}

// Hook maps activity events onto go-users activity records.
type Hook struct {
	Sink Sink
}

// Notify writes the event to the sink. Events without a verb are skipped and
// identifiers that are not UUIDs map to uuid.Nil.
func (h Hook) Notify(ctx context.Context, evt activity.Event) error {
	evt = activity.NormalizeEvent(evt)
	if evt.Verb == "" {
		return nil
	}
	if h.Sink == nil {
		return errMissingSink
	}
	data := maps.Clone(evt.Metadata)
	if data == nil {
		data = map[string]any{}
	}
	if evt.DefinitionCode != "" {
		data["definition_code"] = evt.DefinitionCode
	}
	if len(evt.Recipients) > 0 {
		data["recipients"] = evt.Recipients
	}
	return h.Sink.Log(ctx, types.ActivityRecord{
		ActorID:    parseUUID(evt.ActorID),
		UserID:     parseUUID(evt.UserID),
		TenantID:   parseUUID(evt.TenantID),
		Verb:       evt.Verb,
		ObjectType: evt.ObjectType,
		ObjectID:   evt.ObjectID,
		Channel:    evt.Channel,
		Data:       data,
		OccurredAt: evt.OccurredAt,
	})
}

func parseUUID(value string) uuid.UUID {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}
	return id
}
