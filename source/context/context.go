package context

import (
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/martin-dore/dace/source/dtypes"
	"github.com/martin-dore/dace/source/err"
	"github.com/martin-dore/dace/source/lifecycle"
	"github.com/martin-dore/dace/source/logging"
	"github.com/martin-dore/dace/source/modules"
	"github.com/martin-dore/dace/source/registry"
	"github.com/martin-dore/dace/source/values"
)

// The Autoloader is invoked when a name fails to resolve through direct
// lookup. It is expected to declare the matching descriptor on the context as
// a side effect; the overlay then re-resolves exactly once.
type Autoloader interface {
	AutoloadTypeByName(c *Context, name string)
}

// A SessionHandler closes whatever session resource the host started for this
// request. It is only consulted at teardown, and only if a session was
// started.
type SessionHandler interface {
	CloseSession(c *Context, abrupt bool) error
}

// What a Context is built from. Everything is optional except the registry:
// collaborators the host doesn't care about get inert defaults.
type Config struct {
	Autoloader       Autoloader
	Session          SessionHandler
	Output           OutputSink
	Files            FileReader
	Clock            clockwork.Clock
	Logger           *slog.Logger
	Root             string
	IncludePaths     []string
	WorkingDirectory string
}

// A Context is the request-scoped façade over the whole subsystem: one
// overlay table, one constant map, one set of per-request inclusion flags,
// and one lifecycle coordinator. It lives on a single goroutine for its whole
// life and is never reused after teardown.
type Context struct {
	Id        uuid.UUID
	StartedAt time.Time

	app      *registry.AppRegistry
	scripts  *modules.Registry
	overlay  *Overlay
	consts   *ConstantMap
	included dtypes.Set[int]
	streamed dtypes.Set[string] // raw files already streamed, for once-semantics
	coord    *lifecycle.Coordinator

	autoload    Autoloader
	session     SessionHandler
	sessionOpen bool
	out         OutputSink
	files       FileReader
	clock       clockwork.Clock
	log         *slog.Logger

	include   modules.IncludeConfig
	scriptDir string // directory of the currently executing script, "" at top level
}

func NewContext(app *registry.AppRegistry, cfg Config) *Context {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Files == nil {
		cfg.Files = OsFileReader{}
	}
	if cfg.Output == nil {
		cfg.Output = MakeBufferedOutput(nil)
	}
	id := uuid.New()
	log := logging.WithContext(cfg.Logger, id.String())
	c := &Context{
		Id:        id,
		StartedAt: cfg.Clock.Now(),
		app:       app,
		scripts:   app.Scripts(),
		overlay:   newOverlay(app),
		consts:    NewConstantMap(),
		included:  dtypes.Set[int]{},
		streamed:  dtypes.Set[string]{},
		coord:     lifecycle.NewCoordinator(log),
		autoload:  cfg.Autoloader,
		session:   cfg.Session,
		out:       cfg.Output,
		files:     cfg.Files,
		clock:     cfg.Clock,
		log:       log,
		include: modules.IncludeConfig{
			Root:             cfg.Root,
			IncludePaths:     cfg.IncludePaths,
			WorkingDirectory: cfg.WorkingDirectory,
		},
	}
	c.coord.SetOutputFinalizer(c.out.Finalize)
	// Prime the request with the constants the loaded modules contributed.
	for _, ac := range app.Constants() {
		c.consts.Define(ac.Name, ac.Value, ac.CaseInsensitive)
	}
	return c
}

// Symbols.

// Declare binds a routine or type descriptor for the rest of this request.
// Redeclaration under an already-bound name is fatal to the declaring
// operation; declaring the identical descriptor twice is a no-op.
func (c *Context) Declare(d registry.Descriptor) *err.Error {
	if e := c.alive(); e != nil {
		return e
	}
	return c.overlay.Declare(d)
}

// Resolve looks a name up without consulting the autoloader. The empty result
// is a value, not a failure.
func (c *Context) Resolve(name string) (registry.Descriptor, bool) {
	return c.overlay.Resolve(name)
}

// ResolveOrAutoload resolves a name, giving a configured autoloader exactly
// one chance to declare it first if direct lookup misses.
func (c *Context) ResolveOrAutoload(name string) (registry.Descriptor, *err.Error) {
	if d, ok := c.overlay.Resolve(name); ok {
		return d, nil
	}
	if c.autoload != nil {
		c.autoload.AutoloadTypeByName(c, name)
		if d, ok := c.overlay.Resolve(name); ok {
			return d, nil
		}
	}
	return nil, err.CreateErr("resolve/found", name)
}

func (c *Context) Enumerate() iter.Seq[registry.Descriptor] {
	return c.overlay.Enumerate()
}

// ValidateCache confirms a cached (slot, identity-token) pair cheaply; see
// Overlay.Validate.
func (c *Context) ValidateCache(slot registry.Slot, token uint64) bool {
	return c.overlay.Validate(slot, token)
}

// Constants.

// DefineConstant defines a case-sensitive constant, returning whether this
// call created it. Defining an existing name is a no-op, not an error.
func (c *Context) DefineConstant(name string, v values.Value) bool {
	return c.consts.Define(name, v, false)
}

func (c *Context) DefineCaseInsensitiveConstant(name string, v values.Value) bool {
	return c.consts.Define(name, v, true)
}

func (c *Context) Constant(name string) (values.Value, bool) {
	return c.consts.TryGet(name)
}

func (c *Context) ConstantCached(name string, cachedIndex *int) (values.Value, bool) {
	return c.consts.TryGetCached(name, cachedIndex)
}

func (c *Context) IsConstantDefined(name string) bool {
	return c.consts.IsDefined(name)
}

func (c *Context) EnumerateConstants() iter.Seq2[string, values.Value] {
	return c.consts.Enumerate()
}

// Lifecycle.

// RegisterShutdownCallback registers a callback to run first at teardown, in
// registration order. Callbacks receive the context and may register further
// cleanup work transitively.
func (c *Context) RegisterShutdownCallback(cb func(*Context) error) {
	c.coord.Register(func() error { return cb(c) })
}

func (c *Context) RegisterDisposable(d lifecycle.Disposable) {
	c.coord.AddDisposable(d)
}

func (c *Context) UnregisterDisposable(d lifecycle.Disposable) {
	c.coord.RemoveDisposable(d)
}

func (c *Context) RegisterTemporaryFile(path string) {
	c.coord.AddTemporaryFile(path)
}

func (c *Context) IsTemporaryFile(path string) bool {
	return c.coord.IsTemporaryFile(path)
}

func (c *Context) RemoveTemporaryFile(path string) {
	c.coord.RemoveTemporaryFile(path)
}

// StartSession marks the configured session handler's session as open, so
// that teardown will close it. Without a configured handler this is a no-op.
func (c *Context) StartSession() *err.Error {
	if e := c.alive(); e != nil {
		return e
	}
	if c.session == nil || c.sessionOpen {
		return nil
	}
	c.sessionOpen = true
	c.coord.SetSessionCloser(func() error {
		return c.session.CloseSession(c, false)
	})
	return nil
}

func (c *Context) SessionStarted() bool {
	return c.sessionOpen
}

// Teardown releases everything the request holds, in fixed order, exactly
// once. It is safe to call from an error-unwind path, and calling it again
// is a no-op.
func (c *Context) Teardown() err.Errors {
	failures := c.coord.Teardown()
	for _, e := range failures {
		c.log.Warn("teardown failure", "error", e)
	}
	return failures
}

func (c *Context) IsDisposed() bool {
	return c.coord.State() == lifecycle.Disposed
}

// Plumbing accessors.

func (c *Context) Write(s string) {
	c.out.Write(s)
}

func (c *Context) Output() OutputSink {
	return c.out
}

func (c *Context) Clock() clockwork.Clock {
	return c.clock
}

func (c *Context) Logger() *slog.Logger {
	return c.log
}

func (c *Context) alive() *err.Error {
	if c.coord.State() != lifecycle.Active {
		return err.CreateErr("ctx/disposed", c.Id)
	}
	return nil
}
