package activity

import (
	"maps"
	"strings"
	"time"
)

// Event is an audit record for an admin or storefront action.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// NormalizeEvent trims identifiers and returns a copy that shares no maps or
// slices with the input. OccurredAt defaults to now.
func NormalizeEvent(evt Event) Event {
	out := evt
	out.Verb = strings.TrimSpace(evt.Verb)
	out.ActorID = strings.TrimSpace(evt.ActorID)
	out.UserID = strings.TrimSpace(evt.UserID)
	out.TenantID = strings.TrimSpace(evt.TenantID)
	out.ObjectType = strings.TrimSpace(evt.ObjectType)
	out.ObjectID = strings.TrimSpace(evt.ObjectID)
	out.Channel = strings.TrimSpace(evt.Channel)
	out.DefinitionCode = strings.TrimSpace(evt.DefinitionCode)
	if evt.Metadata != nil {
		out.Metadata = maps.Clone(evt.Metadata)
	} else {
		out.Metadata = map[string]any{}
	}
	if len(evt.Recipients) > 0 {
		out.Recipients = append([]string(nil), evt.Recipients...)
	}
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now().UTC()
	}
	return out
}

func (e Event) valid() bool {
	return e.Verb != "" && e.ObjectType != ""
}
