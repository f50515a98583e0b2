package context

import (
	"bytes"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/martin-dore/dace/source/registry"
)

type recordingSession struct {
	closes int
	abrupt bool
}

func (s *recordingSession) CloseSession(c *Context, abrupt bool) error {
	s.closes++
	s.abrupt = abrupt
	return nil
}

func TestContextIdentity(t *testing.T) {
	show(t, "ContextIdentity")
	app := makeApp(t, nil)
	a := NewContext(app, Config{})
	b := NewContext(app, Config{})
	require.NotEqual(t, a.Id, b.Id)
}

func TestInjectedClock(t *testing.T) {
	show(t, "InjectedClock")
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	c := NewContext(makeApp(t, nil), Config{Clock: clock})
	require.Equal(t, start, c.StartedAt)
	require.Same(t, clockwork.Clock(clock), c.Clock())
}

func TestSessionClosedAtTeardown(t *testing.T) {
	show(t, "SessionClosedAtTeardown")
	session := &recordingSession{}
	c := NewContext(makeApp(t, nil), Config{Session: session})

	require.Nil(t, c.StartSession())
	require.True(t, c.SessionStarted())
	require.Nil(t, c.StartSession()) // starting twice is a no-op

	require.Empty(t, c.Teardown())
	require.Equal(t, 1, session.closes)
	require.False(t, session.abrupt)

	// Teardown is exactly-once, so the session can't be closed twice.
	require.Empty(t, c.Teardown())
	require.Equal(t, 1, session.closes)
}

func TestSessionNeverStartedNeverClosed(t *testing.T) {
	show(t, "SessionNeverStartedNeverClosed")
	session := &recordingSession{}
	c := NewContext(makeApp(t, nil), Config{Session: session})
	require.Empty(t, c.Teardown())
	require.Equal(t, 0, session.closes)
}

func TestOutputFlushedAtTeardown(t *testing.T) {
	show(t, "OutputFlushedAtTeardown")
	var sink bytes.Buffer
	c := NewContext(makeApp(t, nil), Config{Output: MakeBufferedOutput(&sink)})

	c.Write("hello, ")
	c.Write("world")
	require.Empty(t, sink.String()) // buffered until finalization

	require.Empty(t, c.Teardown())
	require.Equal(t, "hello, world", sink.String())
}

func TestShutdownCallbacksSeeTheContext(t *testing.T) {
	show(t, "ShutdownCallbacksSeeTheContext")
	c := NewContext(makeApp(t, nil), Config{})
	var seen *Context
	c.RegisterShutdownCallback(func(inner *Context) error {
		seen = inner
		return nil
	})
	require.Empty(t, c.Teardown())
	require.Same(t, c, seen)
	require.True(t, c.IsDisposed())
}

func TestDisposedContextRefusesWork(t *testing.T) {
	show(t, "DisposedContextRefusesWork")
	c := NewContext(makeApp(t, nil), Config{})
	require.Empty(t, c.Teardown())

	e := c.Declare(registry.NewRoutine("late", "request", noop))
	require.NotNil(t, e)
	require.Equal(t, "ctx/disposed", e.ErrorId)

	require.NotNil(t, c.StartSession())
}

func TestTemporaryFileBookkeeping(t *testing.T) {
	show(t, "TemporaryFileBookkeeping")
	c := NewContext(makeApp(t, nil), Config{})
	c.RegisterTemporaryFile("/tmp/upload-1")
	require.True(t, c.IsTemporaryFile("/tmp/upload-1"))
	c.RemoveTemporaryFile("/tmp/upload-1")
	require.False(t, c.IsTemporaryFile("/tmp/upload-1"))
}
