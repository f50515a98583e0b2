// All this does is contain in one place the constants controlling which bits of the inner
// workings of the registry/inclusion/lifecycle machinery are displayed for debugging
// purposes. In a release they must all be set to false.

package settings

const (
	// These do what it sounds like.
	SHOW_REGISTRY  = false // Traces slot assignment as modules are registered.
	SHOW_OVERLAY   = false // Traces per-request declarations and resolutions.
	SHOW_INCLUSION = false // Traces the candidate paths tried by include/require.
	SHOW_LIFECYCLE = false // Traces the teardown phases as they run.

	SHOW_TESTS = true // Says whether the tests should say what is being tested, useful if one of them crashes and we don't know which.
)
