package registry

import (
	"hash/fnv"
	"strings"
	"sync/atomic"

	"github.com/martin-dore/dace/source/values"
)

// A Slot is the stable integer id assigned to a symbol name the first time the
// App Registry sees it. Slots are never reassigned for the lifetime of the
// process, which is what lets callers use them as direct array indices.
type Slot int

const NoSlot Slot = -1

type SymbolKind int

const (
	RoutineSymbol SymbolKind = iota
	TypeSymbol
)

func (k SymbolKind) String() string {
	if k == RoutineSymbol {
		return "routine"
	}
	return "type"
}

// A Descriptor is what a symbol name resolves to. Descriptors are never
// mutated after declaration: redeclaration is a conflict, not an update.
type Descriptor interface {
	SymbolName() string
	Kind() SymbolKind
	DeclaringModule() string
	// The identity token validates cached (slot, token) pairs cheaply. Two
	// distinct descriptors never share a token, even under the same name.
	IdentityToken() uint64
}

// Symbol names are case-insensitive, so the registries key them folded.
func FoldName(name string) string {
	return strings.ToLower(name)
}

var tokenCounter atomic.Uint64

func newToken(name, module string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(module))
	return h.Sum64() ^ tokenCounter.Add(1)
}

// The callable entry point of a routine.
type RoutineEntry func(args ...values.Value) values.Value

type RoutineDescriptor struct {
	name     string
	module   string
	entry    RoutineEntry
	variants map[int]RoutineEntry // overloads by arity, optional
	token    uint64
}

func NewRoutine(name, module string, entry RoutineEntry) *RoutineDescriptor {
	return &RoutineDescriptor{name: name, module: module, entry: entry, token: newToken(name, module)}
}

// Adds an overload selected by arity. Overloads are part of constructing the
// descriptor, before it is declared anywhere; they are not a way of mutating
// a declared routine.
func (rd *RoutineDescriptor) AddVariant(arity int, entry RoutineEntry) *RoutineDescriptor {
	if rd.variants == nil {
		rd.variants = make(map[int]RoutineEntry)
	}
	rd.variants[arity] = entry
	return rd
}

func (rd *RoutineDescriptor) Call(args ...values.Value) values.Value {
	if rd.variants != nil {
		if entry, ok := rd.variants[len(args)]; ok {
			return entry(args...)
		}
	}
	return rd.entry(args...)
}

func (rd *RoutineDescriptor) SymbolName() string      { return rd.name }
func (rd *RoutineDescriptor) Kind() SymbolKind        { return RoutineSymbol }
func (rd *RoutineDescriptor) DeclaringModule() string { return rd.module }
func (rd *RoutineDescriptor) IdentityToken() uint64   { return rd.token }

type TypeDescriptor struct {
	name    string
	base    string // qualified name of the base type, "" if none
	module  string
	aliases []string
	token   uint64
}

func NewType(name, base, module string, aliases ...string) *TypeDescriptor {
	return &TypeDescriptor{name: name, base: base, module: module, aliases: aliases, token: newToken(name, module)}
}

func (td *TypeDescriptor) SymbolName() string      { return td.name }
func (td *TypeDescriptor) Kind() SymbolKind        { return TypeSymbol }
func (td *TypeDescriptor) DeclaringModule() string { return td.module }
func (td *TypeDescriptor) IdentityToken() uint64   { return td.token }
func (td *TypeDescriptor) BaseName() string        { return td.base }
func (td *TypeDescriptor) Aliases() []string       { return td.aliases }
