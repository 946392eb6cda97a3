package activity

import "context"

const defaultChannel = "storefront"

// Config toggles emission and sets the default channel.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter stamps events with the configured channel and dispatches them.
type Emitter struct {
	hooks Hooks
	cfg   Config
}

// NewEmitter builds an emitter. A nil hook list disables it.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	if cfg.Channel == "" {
		cfg.Channel = defaultChannel
	}
	return &Emitter{hooks: hooks, cfg: cfg}
}

// Enabled reports whether Emit will reach any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && e.cfg.Enabled && len(e.hooks) > 0
}

// Emit sends the event when the emitter is enabled.
func (e *Emitter) Emit(ctx context.Context, evt Event) error {
	if !e.Enabled() {
		return nil
	}
	if evt.Channel == "" {
		evt.Channel = e.cfg.Channel
	}
	return e.hooks.Notify(ctx, evt)
}
