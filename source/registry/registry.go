package registry

import (
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/martin-dore/dace/source/err"
	"github.com/martin-dore/dace/source/modules"
	"github.com/martin-dore/dace/source/settings"
	"github.com/martin-dore/dace/source/text"
	"github.com/martin-dore/dace/source/values"
)

// A constant contributed by a loaded module. Request contexts are primed with
// these when they are created.
type AppConstant struct {
	Name            string
	Value           values.Value
	CaseInsensitive bool
}

// The contract a loadable module must satisfy. The registry invokes the
// Declare* enumeration callbacks exactly once, at load time, to learn what
// the module contributes.
type Loadable interface {
	ModuleName() string
	// A semver constraint on the runtime version, or "" for any.
	RequiredRuntime() string
	DeclareSymbols(declare func(Descriptor))
	// Names the module may declare conditionally at runtime. They get slots
	// now so that per-request declarations can go through the fast path.
	DeclareLazyNames(reserve func(name string))
	DeclareConstants(declare func(name string, v values.Value, caseInsensitive bool))
	DeclareScripts(declare func(path string, entry modules.Entry))
}

// A Loadable assembled from plain slices, for hosts that build their modules
// programmatically, and for the tests.
type BasicModule struct {
	Name      string
	Runtime   string
	Symbols   []Descriptor
	LazyNames []string
	Constants []AppConstant
	Scripts   []ScriptDecl
}

type ScriptDecl struct {
	Path  string
	Entry modules.Entry
}

func (bm *BasicModule) ModuleName() string      { return bm.Name }
func (bm *BasicModule) RequiredRuntime() string { return bm.Runtime }

func (bm *BasicModule) DeclareSymbols(declare func(Descriptor)) {
	for _, d := range bm.Symbols {
		declare(d)
	}
}

func (bm *BasicModule) DeclareLazyNames(reserve func(string)) {
	for _, name := range bm.LazyNames {
		reserve(name)
	}
}

func (bm *BasicModule) DeclareConstants(declare func(string, values.Value, bool)) {
	for _, c := range bm.Constants {
		declare(c.Name, c.Value, c.CaseInsensitive)
	}
}

func (bm *BasicModule) DeclareScripts(declare func(string, modules.Entry)) {
	for _, s := range bm.Scripts {
		declare(s.Path, s.Entry)
	}
}

// The process-wide table of symbols known from loaded modules, shared
// read-mostly across concurrent request contexts. Registration happens during
// process initialization and serializes writers; lookups may run concurrently
// from any number of contexts.
type AppRegistry struct {
	mu        sync.RWMutex
	slots     []Descriptor    // indexed by Slot; nil for reserved-but-undeclared names
	index     map[string]Slot // folded name -> slot
	constants []AppConstant
	scripts   *modules.Registry
	version   *semver.Version
}

func NewAppRegistry() *AppRegistry {
	v, _ := semver.NewVersion(text.VERSION)
	return &AppRegistry{
		index:   make(map[string]Slot),
		scripts: modules.NewRegistry(),
		version: v,
	}
}

// The script-module registry the App Registry loads nested script references
// into. One per App Registry; shared by all its contexts.
func (ar *AppRegistry) Scripts() *modules.Registry {
	return ar.scripts
}

// RegisterModule enumerates the module's declared routines, types, constants,
// and nested script references. Each new name gets a slot; a name already
// registered by an earlier module reuses its slot if the descriptor is the
// same, and is a load-time conflict if it isn't. A module loads as a unit:
// on a conflict, nothing it declared is registered.
func (ar *AppRegistry) RegisterModule(m Loadable) *err.Error {
	if constraint := m.RequiredRuntime(); constraint != "" {
		c, e := semver.NewConstraint(constraint)
		if e != nil || !c.Check(ar.version) {
			return err.CreateErr("registry/module/version", m.ModuleName(), constraint, text.VERSION)
		}
	}
	ar.mu.Lock()
	defer ar.mu.Unlock()
	var conflict *err.Error
	var bound []Slot
	m.DeclareSymbols(func(d Descriptor) {
		if conflict != nil {
			return
		}
		names := []string{d.SymbolName()}
		if td, ok := d.(*TypeDescriptor); ok {
			names = append(names, td.Aliases()...)
		}
		for _, name := range names {
			slot := ar.ensureSlot(name)
			existing := ar.slots[slot]
			if existing == nil {
				ar.slots[slot] = d
				bound = append(bound, slot)
				if settings.SHOW_REGISTRY {
					fmt.Printf("%sslot %v = %v %v\n", text.BULLET, slot, d.Kind(), name)
				}
				continue
			}
			if existing != d {
				conflict = err.CreateErr("registry/symbol/conflict", m.ModuleName(), name)
				return
			}
		}
	})
	if conflict != nil {
		// The failed module contributes nothing: whatever it bound before
		// the conflicting name is unbound again. The slots themselves stay
		// reserved, since slot assignments are forever.
		for _, slot := range bound {
			ar.slots[slot] = nil
		}
		return conflict
	}
	m.DeclareLazyNames(func(name string) {
		ar.ensureSlot(name)
	})
	m.DeclareConstants(func(name string, v values.Value, caseInsensitive bool) {
		for _, c := range ar.constants {
			if c.Name == name {
				return // Define-once: the first module to define a constant wins.
			}
		}
		ar.constants = append(ar.constants, AppConstant{name, v, caseInsensitive})
	})
	m.DeclareScripts(func(path string, entry modules.Entry) {
		ar.scripts.Register(path, entry)
	})
	return nil
}

// ReserveSlot assigns a slot to a name without binding a descriptor to it,
// returning the existing slot if the name already has one.
func (ar *AppRegistry) ReserveSlot(name string) Slot {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	return ar.ensureSlot(name)
}

func (ar *AppRegistry) ensureSlot(name string) Slot {
	folded := FoldName(name)
	if slot, ok := ar.index[folded]; ok {
		return slot
	}
	slot := Slot(len(ar.slots))
	ar.slots = append(ar.slots, nil)
	ar.index[folded] = slot
	return slot
}

func (ar *AppRegistry) SlotOf(name string) (Slot, bool) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	slot, ok := ar.index[FoldName(name)]
	return slot, ok
}

func (ar *AppRegistry) SymbolAt(slot Slot) (Descriptor, bool) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	if slot < 0 || int(slot) >= len(ar.slots) {
		return nil, false
	}
	d := ar.slots[slot]
	return d, d != nil
}

func (ar *AppRegistry) SlotCount() int {
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	return len(ar.slots)
}

// Constants returns a copy of the app-level constants in definition order.
func (ar *AppRegistry) Constants() []AppConstant {
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	result := make([]AppConstant, len(ar.constants))
	copy(result, ar.constants)
	return result
}
