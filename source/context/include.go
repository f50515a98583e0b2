package context

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/martin-dore/dace/source/err"
	"github.com/martin-dore/dace/source/modules"
	"github.com/martin-dore/dace/source/settings"
	"github.com/martin-dore/dace/source/text"
	"github.com/martin-dore/dace/source/values"
)

// Include resolves a requested script and executes it in this request. It is
// the full-control form behind the IncludeFile / RequireFile conveniences and
// satisfies modules.Host, so entry points can include transitively.
//
// A request that resolves to a compiled module runs its entry point against
// the caller's frame; one that only resolves to a file on disk streams the
// raw file to the output sink. With once set, a module that has already run
// in this request yields TRUE without running again. A miss is a warning and
// FALSE unless failHard, in which case it is fatal to the operation.
func (c *Context) Include(requested string, scope map[string]values.Value, this values.Value, self string, once, failHard bool) (values.Value, *err.Error) {
	if e := c.alive(); e != nil {
		return values.FALSE, e
	}
	if sm, ok := c.scripts.ResolveInclude(requested, c.include, c.scriptDir); ok {
		if once && c.included.Contains(sm.Index) {
			return values.TRUE, nil
		}
		// Marked before the entry point runs, so that a script which
		// include_onces itself terminates.
		c.included.Add(sm.Index)
		savedDir := c.scriptDir
		c.scriptDir = filepath.Dir(sm.Path)
		defer func() { c.scriptDir = savedDir }()
		if settings.SHOW_INCLUSION {
			fmt.Printf("%sresolved %v to %v\n", text.BULLET, requested, sm.Path)
		}
		c.log.Debug("including script", "path", sm.Path, "once", once)
		result := sm.Entry(&modules.Frame{Scope: scope, This: this, Self: self, Host: c})
		return result, nil
	}
	// No compiled module: fall back to streaming the file itself. Streamed
	// files count as included, so once-semantics hold for raw files too.
	for _, candidate := range modules.CandidatePaths(requested, c.include, c.scriptDir) {
		if once && c.streamed.Contains(candidate) {
			return values.TRUE, nil
		}
		content, readErr := c.files.ReadFile(candidate)
		if readErr != nil {
			if !errors.Is(readErr, fs.ErrNotExist) {
				c.log.Warn(err.CreateErr("include/read", candidate, readErr).Message, "path", candidate)
			}
			continue
		}
		c.streamed.Add(candidate)
		c.out.Write(content)
		return values.TRUE, nil
	}
	if failHard {
		return values.Value{T: values.ERROR, V: err.CreateErr("require/found", requested)},
			err.CreateErr("require/found", requested)
	}
	// A soft miss: warn and carry on, handing FALSE back to the script.
	c.log.Warn(err.CreateErr("include/found", requested).Message, "requested", requested)
	return values.FALSE, nil
}

func (c *Context) IncludeFile(requested string, scope map[string]values.Value) (values.Value, *err.Error) {
	return c.Include(requested, scope, values.NIL, "", false, false)
}

func (c *Context) IncludeFileOnce(requested string, scope map[string]values.Value) (values.Value, *err.Error) {
	return c.Include(requested, scope, values.NIL, "", true, false)
}

func (c *Context) RequireFile(requested string, scope map[string]values.Value) (values.Value, *err.Error) {
	return c.Include(requested, scope, values.NIL, "", false, true)
}

func (c *Context) RequireFileOnce(requested string, scope map[string]values.Value) (values.Value, *err.Error) {
	return c.Include(requested, scope, values.NIL, "", true, true)
}

// IsIncluded says whether the given script module has run in this request.
func (c *Context) IsIncluded(sm *modules.ScriptModule) bool {
	return c.included.Contains(sm.Index)
}

// SetIncluded marks a module as included without running it, the way a host
// precompiling a prelude would.
func (c *Context) SetIncluded(sm *modules.ScriptModule) {
	c.included.Add(sm.Index)
}
