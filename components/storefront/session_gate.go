package storefront

import (
	"context"
	"errors"
)

// Mount runs the session gate. Without an identity the viewer is redirected to
// the login path and no collection is read. With one, all four collections
// load concurrently. Identity changes observed after Mount re-run the gate.
func (d *Dashboard) Mount(ctx context.Context) error {
	if d.opts.Auth == nil {
		return errMissingAuth
	}
	d.mu.Lock()
	if d.mounted {
		d.mu.Unlock()
		return nil
	}
	d.mounted = true
	d.baseCtx = context.WithoutCancel(ctx)
	d.mu.Unlock()

	unsubscribe := d.opts.Auth.OnIdentityChange(d.identityChanged)
	d.mu.Lock()
	d.unsubscribe = unsubscribe
	d.mu.Unlock()

	identity, ok, err := d.opts.Auth.CurrentIdentity(ctx)
	if err != nil {
		d.opts.Telemetry.Record(ctx, "storefront.session.error", map[string]any{"error": err.Error()})
		ok = false
	}
	d.applyIdentity(ctx, identity, ok)
	return nil
}

// Unmount releases the identity subscription and signs the dashboard out.
// Loads still in flight complete but their results are discarded.
func (d *Dashboard) Unmount() {
	d.mu.Lock()
	unsubscribe := d.unsubscribe
	d.unsubscribe = nil
	d.mounted = false
	d.authorized = false
	d.identity = Identity{}
	d.success = nil
	d.failure = nil
	d.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	d.store.detach()
}

// Authorized reports whether the gate currently admits the viewer.
func (d *Dashboard) Authorized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.authorized
}

func (d *Dashboard) isMounted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mounted
}

func (d *Dashboard) identityChanged(identity Identity, ok bool) {
	d.mu.Lock()
	mounted := d.mounted
	ctx := d.baseCtx
	d.mu.Unlock()
	if !mounted {
		return
	}
	d.applyIdentity(ctx, identity, ok)
}

func (d *Dashboard) applyIdentity(ctx context.Context, identity Identity, ok bool) {
	d.mu.Lock()
	wasAuthorized := d.authorized
	previous := d.identity
	if ok {
		d.identity = identity
		d.authorized = true
	} else {
		d.identity = Identity{}
		d.authorized = false
	}
	d.mu.Unlock()

	if !ok {
		d.opts.Telemetry.Record(ctx, "storefront.session.redirect", map[string]any{"path": d.opts.LoginPath})
		d.opts.Navigator.Redirect(ctx, d.opts.LoginPath)
		return
	}
	if wasAuthorized && previous.ID == identity.ID {
		return
	}
	d.opts.Telemetry.Record(ctx, "storefront.session.admitted", map[string]any{"user_id": identity.ID})
	d.loadAll(ctx)
}

func (d *Dashboard) loadAll(ctx context.Context) {
	errs := d.store.LoadAll(ctx)
	if len(errs) == 0 || !d.isMounted() {
		return
	}
	// Every failed resource keeps its own flag; the banner shows the first.
	var loadErr *LoadError
	if errors.As(errs[0], &loadErr) {
		d.fail(loadErr)
		return
	}
	d.fail(errs[0])
}

// Refresh reloads every collection on demand.
func (d *Dashboard) Refresh(ctx context.Context) error {
	if err := d.requireSession(); err != nil {
		return err
	}
	d.beginAction()
	d.loadAll(ctx)
	return nil
}
