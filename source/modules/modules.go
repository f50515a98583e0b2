package modules

import (
	"path/filepath"
	"sync"

	"github.com/martin-dore/dace/source/err"
	"github.com/martin-dore/dace/source/values"
)

// The Host is the request context as an executing script sees it; it is what
// lets a script's entry point perform nested inclusions and define constants
// without this package knowing the context type.
type Host interface {
	Include(requested string, scope map[string]values.Value, this values.Value, self string, once, failHard bool) (values.Value, *err.Error)
	DefineConstant(name string, v values.Value) bool
}

// A Frame is what a script module's entry point executes against: the
// variable scope of the inclusion site, the 'this' reference, the name of the
// calling type, and the host context.
type Frame struct {
	Scope map[string]values.Value
	This  values.Value
	Self  string
	Host  Host
}

// The executable entry point of a compiled script module.
type Entry func(f *Frame) values.Value

// A ScriptModule is a compiled script identified by its resolved absolute
// path. Whether it has been included is per-request state and lives on the
// request context, not here.
type ScriptModule struct {
	Path  string
	Index int
	Entry Entry

	stale bool // set by the watcher when the backing file changes
}

// The process-wide map from resolved script paths to their modules.
type Registry struct {
	mu     sync.RWMutex
	byPath map[string]*ScriptModule
	list   []*ScriptModule
}

func NewRegistry() *Registry {
	return &Registry{byPath: make(map[string]*ScriptModule)}
}

// Register adds a compiled script under its path, or returns the module
// already registered there.
func (r *Registry) Register(path string, entry Entry) *ScriptModule {
	path = filepath.Clean(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	if sm, ok := r.byPath[path]; ok {
		return sm
	}
	sm := &ScriptModule{Path: path, Index: len(r.list), Entry: entry}
	r.byPath[path] = sm
	r.list = append(r.list, sm)
	return sm
}

func (r *Registry) AtPath(path string) (*ScriptModule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sm, ok := r.byPath[filepath.Clean(path)]
	return sm, ok
}

func (r *Registry) At(index int) (*ScriptModule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.list) {
		return nil, false
	}
	return r.list[index], true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

// MarkStale flags the module registered at the given path, if any. The
// watcher calls this; NeedsUpdate reports it.
func (r *Registry) MarkStale(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sm, ok := r.byPath[filepath.Clean(path)]; ok {
		sm.stale = true
	}
}

// NeedsUpdate says whether the module's backing file has changed since it was
// registered.
func (r *Registry) NeedsUpdate(sm *ScriptModule) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sm.stale
}

// How include paths are searched. Root anchors relative include-path entries;
// WorkingDirectory is the last-resort base for relative requests.
type IncludeConfig struct {
	Root             string
	IncludePaths     []string
	WorkingDirectory string
}

// CandidatePaths lists, in resolution order, the absolute paths an include
// request could refer to: the request itself if absolute, then relative to
// the current script's directory, then prefixed by each include path, then
// relative to the working directory.
func CandidatePaths(requested string, cfg IncludeConfig, currentScriptDir string) []string {
	if filepath.IsAbs(requested) {
		return []string{filepath.Clean(requested)}
	}
	candidates := []string{}
	seen := map[string]bool{}
	add := func(path string) {
		path = filepath.Clean(path)
		if !seen[path] {
			seen[path] = true
			candidates = append(candidates, path)
		}
	}
	if currentScriptDir != "" {
		add(filepath.Join(currentScriptDir, requested))
	}
	for _, p := range cfg.IncludePaths {
		dir := p
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cfg.Root, dir)
		}
		add(filepath.Join(dir, requested))
	}
	if cfg.WorkingDirectory != "" {
		add(filepath.Join(cfg.WorkingDirectory, requested))
	}
	return candidates
}

// ResolveInclude returns the first registered module matching a candidate
// path, or nothing if no compiled module matches.
func (r *Registry) ResolveInclude(requested string, cfg IncludeConfig, currentScriptDir string) (*ScriptModule, bool) {
	for _, candidate := range CandidatePaths(requested, cfg, currentScriptDir) {
		if sm, ok := r.AtPath(candidate); ok {
			return sm, true
		}
	}
	return nil, false
}
