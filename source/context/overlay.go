package context

import (
	"fmt"
	"iter"

	"github.com/martin-dore/dace/source/err"
	"github.com/martin-dore/dace/source/registry"
	"github.com/martin-dore/dace/source/settings"
	"github.com/martin-dore/dace/source/text"
)

// The Overlay is the per-request view of the symbol universe: the shared App
// Registry underneath, plus whatever this request has declared dynamically on
// top. Lookups check a slot-indexed array first, so that names the app knows
// never pay for hashing, and fall back to a name map for names invented
// entirely at runtime.
type Overlay struct {
	app        *registry.AppRegistry
	slotted    []registry.Descriptor // per-request bindings for app-assigned slots
	local      map[string]registry.Descriptor
	localOrder []string
}

func newOverlay(app *registry.AppRegistry) *Overlay {
	return &Overlay{app: app, local: make(map[string]registry.Descriptor)}
}

// Declare binds a descriptor for the rest of the request. Declaring the same
// descriptor instance again is a harmless no-op; declaring a different
// descriptor under a name that already resolves is a redeclaration conflict.
func (ov *Overlay) Declare(d registry.Descriptor) *err.Error {
	names := []string{d.SymbolName()}
	if td, ok := d.(*registry.TypeDescriptor); ok {
		names = append(names, td.Aliases()...)
	}
	for _, name := range names {
		if existing, ok := ov.Resolve(name); ok {
			if existing == d {
				continue
			}
			if existing.Kind() != d.Kind() {
				return err.CreateErr("decl/kind", name, d.Kind().String(), existing.Kind().String())
			}
			if d.Kind() == registry.RoutineSymbol {
				return err.CreateErr("decl/routine/conflict", name)
			}
			return err.CreateErr("decl/type/conflict", name)
		}
	}
	for _, name := range names {
		if existing, ok := ov.Resolve(name); ok && existing == d {
			continue
		}
		if settings.SHOW_OVERLAY {
			fmt.Printf("%sdeclaring %v %v\n", text.BULLET, d.Kind(), name)
		}
		if slot, ok := ov.app.SlotOf(name); ok {
			ov.growTo(int(slot) + 1)
			ov.slotted[slot] = d
		} else {
			folded := registry.FoldName(name)
			ov.local[folded] = d
			ov.localOrder = append(ov.localOrder, folded)
		}
	}
	return nil
}

// Resolve looks a name up, overlay tiers first, app tier second. Both the
// slotted array and the local map are per-request state, so either of them
// beats the app registry: a name declared locally stays resolved to the
// request's descriptor even if a module registered later in the process gives
// that name an app slot. A miss is an empty result, not an error, so that the
// caller can go on to try autoload.
func (ov *Overlay) Resolve(name string) (registry.Descriptor, bool) {
	slot, hasSlot := ov.app.SlotOf(name)
	if hasSlot && int(slot) < len(ov.slotted) && ov.slotted[slot] != nil {
		return ov.slotted[slot], true
	}
	if d, ok := ov.local[registry.FoldName(name)]; ok {
		return d, true
	}
	if hasSlot {
		return ov.app.SymbolAt(slot)
	}
	return nil, false
}

// Validate confirms that a cached (slot, identity-token) pair still refers to
// the descriptor it referred to when it was cached. Call sites use this to
// revalidate inline caches without re-resolving the name.
func (ov *Overlay) Validate(slot registry.Slot, token uint64) bool {
	if int(slot) < len(ov.slotted) && ov.slotted[slot] != nil {
		return ov.slotted[slot].IdentityToken() == token
	}
	d, ok := ov.app.SymbolAt(slot)
	return ok && d.IdentityToken() == token
}

// Enumerate yields the app-level symbols and then this request's symbols.
// Aliased names share a descriptor, which is yielded once, and an app symbol
// shadowed by a request-local declaration of the same name is not yielded at
// all: what comes out is exactly what resolves. Ordering is consistent within
// a tier for one enumeration, and that is all that is promised.
func (ov *Overlay) Enumerate() iter.Seq[registry.Descriptor] {
	return func(yield func(registry.Descriptor) bool) {
		seen := map[uint64]bool{}
		for i := 0; i < ov.app.SlotCount(); i++ {
			if d, ok := ov.app.SymbolAt(registry.Slot(i)); ok && !seen[d.IdentityToken()] {
				if r, ok := ov.Resolve(d.SymbolName()); !ok || r != d {
					continue
				}
				seen[d.IdentityToken()] = true
				if !yield(d) {
					return
				}
			}
		}
		for _, d := range ov.slotted {
			if d != nil && !seen[d.IdentityToken()] {
				seen[d.IdentityToken()] = true
				if !yield(d) {
					return
				}
			}
		}
		for _, name := range ov.localOrder {
			d := ov.local[name]
			if !seen[d.IdentityToken()] {
				seen[d.IdentityToken()] = true
				if !yield(d) {
					return
				}
			}
		}
	}
}

func (ov *Overlay) growTo(n int) {
	for len(ov.slotted) < n {
		ov.slotted = append(ov.slotted, nil)
	}
}
