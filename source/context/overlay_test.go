package context

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/martin-dore/dace/source/registry"
	"github.com/martin-dore/dace/source/settings"
	"github.com/martin-dore/dace/source/text"
	"github.com/martin-dore/dace/source/values"
)

func show(t *testing.T, name string) {
	if settings.SHOW_TESTS {
		println(text.BULLET + "Running test " + text.Emph(name))
	}
}

func noop(args ...values.Value) values.Value { return values.NIL }

func makeApp(t *testing.T, m *registry.BasicModule) *registry.AppRegistry {
	ar := registry.NewAppRegistry()
	if m != nil {
		require.Nil(t, ar.RegisterModule(m))
	}
	return ar
}

func TestDeclareAndResolve(t *testing.T) {
	show(t, "DeclareAndResolve")
	c := NewContext(makeApp(t, nil), Config{})
	greet := registry.NewRoutine("greet", "request", noop)
	require.Nil(t, c.Declare(greet))

	d, ok := c.Resolve("greet")
	require.True(t, ok)
	require.Same(t, registry.Descriptor(greet), d)

	// Resolution is case-insensitive for routines and types.
	d, ok = c.Resolve("GREET")
	require.True(t, ok)
	require.Same(t, registry.Descriptor(greet), d)
}

func TestDeclareIsIdempotentPerInstance(t *testing.T) {
	show(t, "DeclareIsIdempotentPerInstance")
	c := NewContext(makeApp(t, nil), Config{})
	greet := registry.NewRoutine("greet", "request", noop)
	require.Nil(t, c.Declare(greet))
	require.Nil(t, c.Declare(greet)) // same instance: no-op, not a conflict
}

func TestDeclareConflicts(t *testing.T) {
	show(t, "DeclareConflicts")
	tests := []struct {
		name    string
		first   registry.Descriptor
		second  registry.Descriptor
		wantErr string
	}{
		{"routine twice", registry.NewRoutine("f", "a", noop), registry.NewRoutine("f", "b", noop), "decl/routine/conflict"},
		{"type twice", registry.NewType("T", "", "a"), registry.NewType("T", "", "b"), "decl/type/conflict"},
		{"routine then type", registry.NewRoutine("x", "a", noop), registry.NewType("x", "", "b"), "decl/kind"},
		{"type then routine", registry.NewType("y", "", "a"), registry.NewRoutine("y", "b", noop), "decl/kind"},
	}
	for _, test := range tests {
		c := NewContext(makeApp(t, nil), Config{})
		require.Nil(t, c.Declare(test.first), test.name)
		e := c.Declare(test.second)
		require.NotNil(t, e, test.name)
		require.Equal(t, test.wantErr, e.ErrorId, test.name)

		// The failed declaration changed nothing.
		d, ok := c.Resolve(test.first.SymbolName())
		require.True(t, ok, test.name)
		require.Same(t, test.first, d, test.name)
	}
}

func TestContextsAreIsolated(t *testing.T) {
	show(t, "ContextsAreIsolated")
	app := makeApp(t, &registry.BasicModule{Name: "core",
		Symbols: []registry.Descriptor{registry.NewRoutine("shared", "core", noop)}})
	a := NewContext(app, Config{})
	b := NewContext(app, Config{})

	require.Nil(t, a.Declare(registry.NewRoutine("mine", "request", noop)))

	_, ok := a.Resolve("mine")
	require.True(t, ok)
	_, ok = b.Resolve("mine")
	require.False(t, ok)

	// Both see the shared app-level symbol.
	_, ok = a.Resolve("shared")
	require.True(t, ok)
	_, ok = b.Resolve("shared")
	require.True(t, ok)
}

func TestLazySlotFastPath(t *testing.T) {
	show(t, "LazySlotFastPath")
	app := makeApp(t, &registry.BasicModule{Name: "cond", LazyNames: []string{"Maybe"}})
	c := NewContext(app, Config{})

	slot, ok := app.SlotOf("Maybe")
	require.True(t, ok)
	_, ok = c.Resolve("Maybe")
	require.False(t, ok) // reserved, not yet declared

	maybe := registry.NewType("Maybe", "", "request")
	require.Nil(t, c.Declare(maybe))

	d, ok := c.Resolve("maybe")
	require.True(t, ok)
	require.Same(t, registry.Descriptor(maybe), d)

	// The reserved slot now validates an inline cache for this request only.
	require.True(t, c.ValidateCache(slot, maybe.IdentityToken()))
	require.False(t, c.ValidateCache(slot, maybe.IdentityToken()+1))
	other := NewContext(app, Config{})
	require.False(t, other.ValidateCache(slot, maybe.IdentityToken()))
}

func TestValidateAppLevelCache(t *testing.T) {
	show(t, "ValidateAppLevelCache")
	strlen := registry.NewRoutine("strlen", "core", noop)
	app := makeApp(t, &registry.BasicModule{Name: "core", Symbols: []registry.Descriptor{strlen}})
	c := NewContext(app, Config{})

	slot, _ := app.SlotOf("strlen")
	require.True(t, c.ValidateCache(slot, strlen.IdentityToken()))
	require.False(t, c.ValidateCache(slot, 0))
	require.False(t, c.ValidateCache(registry.Slot(999), strlen.IdentityToken()))
}

type countingLoader struct {
	calls    int
	declared *registry.TypeDescriptor
}

func (l *countingLoader) AutoloadTypeByName(c *Context, name string) {
	l.calls++
	if l.declared != nil && registry.FoldName(l.declared.SymbolName()) == registry.FoldName(name) {
		c.Declare(l.declared)
	}
}

func TestAutoloadDeclaresBySideEffect(t *testing.T) {
	show(t, "AutoloadDeclaresBySideEffect")
	widget := registry.NewType("Widget", "", "autoloaded")
	loader := &countingLoader{declared: widget}
	c := NewContext(makeApp(t, nil), Config{Autoloader: loader})

	d, e := c.ResolveOrAutoload("Widget")
	require.Nil(t, e)
	require.Same(t, registry.Descriptor(widget), d)
	require.Equal(t, 1, loader.calls)

	// Once declared, later resolutions never consult the loader again.
	_, e = c.ResolveOrAutoload("Widget")
	require.Nil(t, e)
	require.Equal(t, 1, loader.calls)
}

func TestAutoloadMiss(t *testing.T) {
	show(t, "AutoloadMiss")
	loader := &countingLoader{}
	c := NewContext(makeApp(t, nil), Config{Autoloader: loader})

	_, e := c.ResolveOrAutoload("NoSuchThing")
	require.NotNil(t, e)
	require.Equal(t, "resolve/found", e.ErrorId)
	require.Equal(t, 1, loader.calls)
}

func TestLocalDeclarationSurvivesLateModuleLoad(t *testing.T) {
	show(t, "LocalDeclarationSurvivesLateModuleLoad")
	app := makeApp(t, nil)
	c := NewContext(app, Config{})
	mine := registry.NewRoutine("helper", "request", noop)
	require.Nil(t, c.Declare(mine))

	// A module registered after the declaration gives 'helper' an app slot.
	// The request's own binding still wins; most recently declared means the
	// request tier, not whoever touched the process-wide registry last.
	theirs := registry.NewRoutine("helper", "plugin", noop)
	require.Nil(t, app.RegisterModule(&registry.BasicModule{Name: "plugin",
		Symbols: []registry.Descriptor{theirs}}))

	d, ok := c.Resolve("helper")
	require.True(t, ok)
	require.Same(t, registry.Descriptor(mine), d)

	// The shadowed app symbol is not enumerated alongside it: one name, one
	// descriptor, within this context.
	count := 0
	for d := range c.Enumerate() {
		if d.SymbolName() == "helper" {
			count++
			require.Same(t, registry.Descriptor(mine), d)
		}
	}
	require.Equal(t, 1, count)

	// A context begun after the module load sees the module's descriptor.
	fresh := NewContext(app, Config{})
	d, ok = fresh.Resolve("helper")
	require.True(t, ok)
	require.Same(t, registry.Descriptor(theirs), d)
}

func TestEnumerate(t *testing.T) {
	show(t, "Enumerate")
	point := registry.NewType("Point", "", "geometry", "Pt")
	app := makeApp(t, &registry.BasicModule{Name: "geometry",
		Symbols: []registry.Descriptor{point, registry.NewRoutine("area", "geometry", noop)}})
	c := NewContext(app, Config{})
	require.Nil(t, c.Declare(registry.NewRoutine("localOne", "request", noop)))
	require.Nil(t, c.Declare(registry.NewRoutine("localTwo", "request", noop)))

	names := []string{}
	for d := range c.Enumerate() {
		names = append(names, d.SymbolName())
	}
	// App tier first in slot order, then request-local declarations in
	// declaration order; the aliased type appears once.
	require.Equal(t, []string{"Point", "area", "localOne", "localTwo"}, names)
}
