package lifecycle

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/martin-dore/dace/source/dtypes"
	"github.com/martin-dore/dace/source/err"
	"github.com/martin-dore/dace/source/settings"
	"github.com/martin-dore/dace/source/text"
)

type State int

const (
	Active State = iota
	TearingDown
	Disposed
)

// A resource whose cleanup the coordinator owes at teardown. Disposal order
// among disposables is not guaranteed; they are a set, not a sequence.
type Disposable interface {
	Dispose() error
}

// The Coordinator owns the fixed-order, exactly-once teardown sequence of one
// request context. The owning context wires its collaborators in as closures,
// which keeps the coordinator ignorant of what a session or an output buffer
// actually is.
type Coordinator struct {
	state          State
	callbacks      []func() error
	disposables    dtypes.Set[Disposable]
	closeSession   func() error
	finalizeOutput func() error
	tempFiles      dtypes.Set[string]
	log            *slog.Logger
}

func NewCoordinator(log *slog.Logger) *Coordinator {
	return &Coordinator{
		disposables: dtypes.Set[Disposable]{},
		tempFiles:   dtypes.Set[string]{},
		log:         log,
	}
}

func (co *Coordinator) State() State {
	return co.state
}

// Register adds a shutdown callback. Callbacks run first at teardown, in
// registration order, and may register further callbacks transitively: the
// queue is drained to empty before the disposables phase starts.
func (co *Coordinator) Register(cb func() error) {
	co.callbacks = append(co.callbacks, cb)
}

func (co *Coordinator) AddDisposable(d Disposable) {
	co.disposables.Add(d)
}

func (co *Coordinator) RemoveDisposable(d Disposable) {
	co.disposables.Remove(d)
}

// SetSessionCloser is called by the context when a session is started; if it
// is never called, the session phase of teardown is skipped.
func (co *Coordinator) SetSessionCloser(fn func() error) {
	co.closeSession = fn
}

func (co *Coordinator) SetOutputFinalizer(fn func() error) {
	co.finalizeOutput = fn
}

func (co *Coordinator) AddTemporaryFile(path string) {
	co.tempFiles.Add(path)
}

func (co *Coordinator) IsTemporaryFile(path string) bool {
	return co.tempFiles.Contains(path)
}

func (co *Coordinator) RemoveTemporaryFile(path string) {
	co.tempFiles.Remove(path)
}

// Teardown runs the five phases in order: shutdown callbacks, disposables,
// session close, output finalization, temporary-file deletion. A failure in
// one phase is reported but does not stop the phases after it, and the
// temp-file sweep always runs. Calling Teardown a second time is a no-op.
func (co *Coordinator) Teardown() err.Errors {
	if co.state != Active {
		return nil
	}
	co.state = TearingDown
	failures := err.Errors{}

	if settings.SHOW_LIFECYCLE {
		fmt.Println(text.BULLET + "running shutdown callbacks")
	}
	for len(co.callbacks) > 0 {
		cb := co.callbacks[0]
		co.callbacks = co.callbacks[1:]
		if e := runIsolated(cb); e != nil {
			failures = append(failures, err.CreateErr("teardown/callback", e))
			co.log.Warn("shutdown callback failed", "error", e)
		}
	}

	if settings.SHOW_LIFECYCLE {
		fmt.Println(text.BULLET + "disposing resources")
	}
	for d := range co.disposables {
		if e := runIsolated(d.Dispose); e != nil {
			failures = append(failures, err.CreateErr("teardown/dispose", e))
			co.log.Warn("dispose failed", "error", e)
		}
	}
	clear(co.disposables)

	if co.closeSession != nil {
		if settings.SHOW_LIFECYCLE {
			fmt.Println(text.BULLET + "closing session")
		}
		if e := runIsolated(co.closeSession); e != nil {
			failures = append(failures, err.CreateErr("teardown/session", e))
			co.log.Warn("session close failed", "error", e)
		}
	}

	if co.finalizeOutput != nil {
		if settings.SHOW_LIFECYCLE {
			fmt.Println(text.BULLET + "finalizing output")
		}
		if e := runIsolated(co.finalizeOutput); e != nil {
			failures = append(failures, err.CreateErr("teardown/output", e))
			co.log.Warn("output finalization failed", "error", e)
		}
	}

	// Deletion failures are swallowed: a temp file we can't delete is not
	// something the dying request can do anything about.
	if settings.SHOW_LIFECYCLE {
		fmt.Println(text.BULLET + "deleting temporary files")
	}
	for path := range co.tempFiles {
		os.Remove(path)
	}
	clear(co.tempFiles)

	co.state = Disposed
	return failures
}

func runIsolated(fn func() error) (e error) {
	defer func() {
		if r := recover(); r != nil {
			e = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
