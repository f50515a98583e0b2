package modules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/martin-dore/dace/source/settings"
	"github.com/martin-dore/dace/source/text"
	"github.com/martin-dore/dace/source/values"
)

func show(t *testing.T, name string) {
	if settings.SHOW_TESTS {
		println(text.BULLET + "Running test " + text.Emph(name))
	}
}

func entry(f *Frame) values.Value { return values.OK }

func TestCandidatePaths(t *testing.T) {
	show(t, "CandidatePaths")
	cfg := IncludeConfig{Root: "/app", IncludePaths: []string{"lib", "/opt/shared"}, WorkingDirectory: "/app"}
	tests := []struct {
		requested string
		scriptDir string
		want      []string
	}{
		// An absolute request is its own single candidate.
		{"/etc/thing.php", "/app/src", []string{"/etc/thing.php"}},
		// Relative requests walk script dir, include paths, working dir.
		{"a.php", "/app/src", []string{"/app/src/a.php", "/app/lib/a.php", "/opt/shared/a.php", "/app/a.php"}},
		// With no current script the script-dir tier is absent.
		{"a.php", "", []string{"/app/lib/a.php", "/opt/shared/a.php", "/app/a.php"}},
		// The requested path is appended whole to each include path.
		{"lib/a.php", "", []string{"/app/lib/lib/a.php", "/opt/shared/lib/a.php", "/app/lib/a.php"}},
		// Coinciding candidates are listed once, at their earliest position.
		{"b.php", "/app", []string{"/app/b.php", "/app/lib/b.php", "/opt/shared/b.php"}},
	}
	for _, test := range tests {
		require.Equal(t, test.want, CandidatePaths(test.requested, cfg, test.scriptDir), "requested %q", test.requested)
	}
}

func TestRegisterIsIdempotentPerPath(t *testing.T) {
	show(t, "RegisterIsIdempotentPerPath")
	r := NewRegistry()
	first := r.Register("/app/a.php", entry)
	again := r.Register("/app/sub/../a.php", entry) // paths are cleaned before keying
	require.Same(t, first, again)
	require.Equal(t, 1, r.Count())

	sm, ok := r.AtPath("/app/a.php")
	require.True(t, ok)
	require.Same(t, first, sm)
	byIndex, ok := r.At(first.Index)
	require.True(t, ok)
	require.Same(t, first, byIndex)
}

func TestIndicesAreDense(t *testing.T) {
	show(t, "IndicesAreDense")
	r := NewRegistry()
	require.Equal(t, 0, r.Register("/app/a.php", entry).Index)
	require.Equal(t, 1, r.Register("/app/b.php", entry).Index)
	_, ok := r.At(2)
	require.False(t, ok)
}

func TestResolveInclude(t *testing.T) {
	show(t, "ResolveInclude")
	r := NewRegistry()
	lib := r.Register("/app/lib/util.php", entry)
	cfg := IncludeConfig{Root: "/app", IncludePaths: []string{"lib"}, WorkingDirectory: "/app"}

	sm, ok := r.ResolveInclude("util.php", cfg, "")
	require.True(t, ok)
	require.Same(t, lib, sm)

	_, ok = r.ResolveInclude("missing.php", cfg, "")
	require.False(t, ok)
}

func TestMarkStale(t *testing.T) {
	show(t, "MarkStale")
	r := NewRegistry()
	sm := r.Register("/app/a.php", entry)
	require.False(t, r.NeedsUpdate(sm))

	r.MarkStale("/app/other.php") // unknown paths are ignored
	require.False(t, r.NeedsUpdate(sm))

	r.MarkStale("/app/a.php")
	require.True(t, r.NeedsUpdate(sm))
}
