package storefront

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-storefront/pkg/activity"
)

// DefaultLoginPath is where unauthenticated dashboard viewers are sent.
const DefaultLoginPath = "/login"

// Options configures a Dashboard. Every collaborator is provided via interface
// so applications can swap the hosted backend for another implementation.
type Options struct {
	Data           DataStore
	Auth           AuthProvider
	Storage        ObjectStorage
	Navigator      Navigator
	RefreshHook    RefreshHook
	Telemetry      Telemetry
	Translator     TranslationService
	ActivityHooks  activity.Hooks
	ActivityConfig activity.Config
	Locale         string
	ImageBucket    string
	LoginPath      string
	Clock          func() time.Time
}

// Dashboard is the admin state for a single signed-in viewer: the session
// gate, the four collections, the product form and the active section.
type Dashboard struct {
	opts     Options
	store    *ResourceStore
	form     *ProductFormController
	activity *activity.Emitter

	mu          sync.Mutex
	baseCtx     context.Context
	mounted     bool
	authorized  bool
	identity    Identity
	section     Section
	success     *Notice
	failure     *Notice
	unsubscribe func()
}

// NewDashboard builds a Dashboard with safe defaults.
func NewDashboard(opts Options) *Dashboard {
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Navigator == nil {
		opts.Navigator = noopNavigator{}
	}
	if opts.LoginPath == "" {
		opts.LoginPath = DefaultLoginPath
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Dashboard{
		opts:  opts,
		store: NewResourceStore(opts.Data, opts.Telemetry),
		form: NewProductFormController(ProductFormOptions{
			Data:      opts.Data,
			Storage:   opts.Storage,
			Bucket:    opts.ImageBucket,
			Clock:     opts.Clock,
			Telemetry: opts.Telemetry,
		}),
		activity: activity.NewEmitter(opts.ActivityHooks, opts.ActivityConfig),
		section:  SectionOverview,
		baseCtx:  context.Background(),
	}
}

// Store exposes the resource collections.
func (d *Dashboard) Store() *ResourceStore { return d.store }

// Form exposes the product form controller.
func (d *Dashboard) Form() *ProductFormController { return d.form }

// Identity returns the signed-in identity, if any.
func (d *Dashboard) Identity() (Identity, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.identity, d.authorized
}

// DismissNotices clears the success and error banners.
func (d *Dashboard) DismissNotices() {
	d.mu.Lock()
	d.success = nil
	d.failure = nil
	d.mu.Unlock()
	for _, r := range Resources() {
		d.store.ClearErr(r)
	}
}

func (d *Dashboard) beginAction() {
	d.mu.Lock()
	d.success = nil
	d.failure = nil
	d.mu.Unlock()
}

func (d *Dashboard) succeed(ctx context.Context, key string) {
	text := translateOrFallback(ctx, d.opts.Translator, key, d.opts.Locale, SuccessText(key), nil)
	d.mu.Lock()
	d.success = &Notice{Kind: NoticeSuccess, Message: text}
	d.mu.Unlock()
}

func (d *Dashboard) fail(err error) {
	notice := noticeForError(err)
	d.mu.Lock()
	d.failure = &notice
	d.mu.Unlock()
}

func (d *Dashboard) requireSession() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.authorized {
		return ErrUnauthenticated
	}
	return nil
}

func (d *Dashboard) emitActivity(ctx context.Context, verb, objectType string, id ID, meta map[string]any) {
	if !d.activity.Enabled() {
		return
	}
	identity, _ := d.Identity()
	if err := d.activity.Emit(ctx, activity.Event{
		Verb:       verb,
		ActorID:    identity.ID,
		UserID:     identity.ID,
		ObjectType: objectType,
		ObjectID:   id.String(),
		Metadata:   meta,
	}); err != nil {
		d.opts.Telemetry.Record(ctx, "storefront.activity.error", map[string]any{
			"verb":  verb,
			"error": err.Error(),
		})
	}
}

func (d *Dashboard) notify(ctx context.Context, event Event) {
	if err := d.opts.RefreshHook.CollectionUpdated(ctx, event); err != nil {
		d.opts.Telemetry.Record(ctx, "storefront.refresh.error", map[string]any{
			"resource": string(event.Resource),
			"error":    err.Error(),
		})
	}
}

// reload re-reads the collection after a successful write. A failed reload
// raises the load banner but does not undo the write's success notice.
func (d *Dashboard) reload(ctx context.Context, resource Resource) {
	if err := d.store.Load(ctx, resource); err != nil {
		d.fail(err)
	}
}

type noopRefreshHook struct{}

func (noopRefreshHook) CollectionUpdated(context.Context, Event) error { return nil }

type noopNavigator struct{}

func (noopNavigator) Redirect(context.Context, string) {}
