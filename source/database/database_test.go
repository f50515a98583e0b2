package database

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	dctx "github.com/martin-dore/dace/source/context"
	"github.com/martin-dore/dace/source/registry"
	"github.com/martin-dore/dace/source/settings"
	"github.com/martin-dore/dace/source/text"
)

func show(t *testing.T, name string) {
	if settings.SHOW_TESTS {
		println(text.BULLET + "Running test " + text.Emph(name))
	}
}

func memoryStore(t *testing.T) *SessionStore {
	db, e := sql.Open("sqlite", ":memory:")
	require.NoError(t, e)
	// An in-memory SQLite database is per-connection, so the pool must not
	// wander off the one that holds the tables.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	store := NewSessionStore(db, nil)
	require.NoError(t, store.Initialize())
	return store
}

func TestSessionRoundTrip(t *testing.T) {
	show(t, "SessionRoundTrip")
	store := memoryStore(t)
	c := dctx.NewContext(registry.NewAppRegistry(), dctx.Config{Session: store})

	token, e := store.Open(c)
	require.NoError(t, e)
	require.NotEmpty(t, token)

	ok, e := store.ValidateToken(c.Id.String(), token)
	require.NoError(t, e)
	require.True(t, ok)

	ok, e = store.ValidateToken(c.Id.String(), "not-the-token")
	require.NoError(t, e)
	require.False(t, ok)
}

func TestSessionClosedByTeardown(t *testing.T) {
	show(t, "SessionClosedByTeardown")
	store := memoryStore(t)
	c := dctx.NewContext(registry.NewAppRegistry(), dctx.Config{Session: store})

	token, e := store.Open(c)
	require.NoError(t, e)
	require.Nil(t, c.StartSession())

	require.Empty(t, c.Teardown())

	// A closed session no longer validates.
	ok, e := store.ValidateToken(c.Id.String(), token)
	require.NoError(t, e)
	require.False(t, ok)
}

func TestUnknownContextDoesNotValidate(t *testing.T) {
	show(t, "UnknownContextDoesNotValidate")
	store := memoryStore(t)
	ok, e := store.ValidateToken("no-such-context", "whatever")
	require.NoError(t, e)
	require.False(t, ok)
}

func TestDriverTable(t *testing.T) {
	show(t, "DriverTable")
	require.Equal(t, []string{"Firebird SQL", "MariaDB", "MySQL", "Oracle", "Postgres", "SQL Server", "SQLite"},
		GetSortedDrivers())
}
