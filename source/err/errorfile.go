package err

// A map from error identifiers to functions that supply the corresponding error
// messages and explanations.
//
// Errors in the map are in alphabetical order of their identifiers.
//
// Major categories are ctx, decl, include, registry, require, resolve, session,
// and teardown.
//
// Two otherwise identical errors thrown in different places in the Go code must
// be assigned different identifiers, if only by suffixing /a, /b, etc to the
// identifier.

var ErrorCreatorMap = map[string]ErrorCreator{

	// TEMPLATE
	"": {
		Message: func(args ...any) string {
			return ""
		},
		Explanation: func(errors Errors, pos int, args ...any) string {
			return ""
		},
	},

	"ctx/disposed": {
		Message: func(args ...any) string {
			return "using request context " + emph(args[0]) + " after teardown"
		},
		Explanation: func(errors Errors, pos int, args ...any) string {
			return "Once a request context has been torn down it is dead: it cannot be " +
				"reused for another execution, and nothing should be holding onto it. " +
				"That something did is a bug in the host, not in the script."
		},
	},

	"decl/kind": {
		Message: func(args ...any) string {
			return "declaring " + emph(args[0]) + " as a " + emph(args[1]) + " when it is already a " + emph(args[2])
		},
		Explanation: func(errors Errors, pos int, args ...any) string {
			return "Routines and types share one namespace, so a name bound to a symbol of " +
				"one kind can't be re-bound to a symbol of the other kind within the same " +
				"request."
		},
	},

	"decl/routine/conflict": {
		Message: func(args ...any) string {
			return "redeclaring routine " + emph(args[0])
		},
		Explanation: func(errors Errors, pos int, args ...any) string {
			return "A routine name, once bound, stays bound for the rest of the request. " +
				"Declaring a different routine under the same name is a fatal conflict: " +
				"there is no sensible way to decide which of the two callers should get."
		},
	},

	"decl/type/conflict": {
		Message: func(args ...any) string {
			return "redeclaring type " + emph(args[0])
		},
		Explanation: func(errors Errors, pos int, args ...any) string {
			return "A type name, once bound, stays bound for the rest of the request. " +
				"Declaring a different type under the same name is a fatal conflict: " +
				"there is no sensible way to decide which of the two callers should get."
		},
	},

	"err/misdirect": {
		Message: func(args ...any) string {
			return "the runtime is trying and failing to raise an error with reference " + emph(args[0])
		},
		Explanation: func(errors Errors, pos int, args ...any) string {
			return "The author of the runtime has managed to throw an error with a code " +
				"that doesn't actually correspond to an error. This should be reported as an issue."
		},
	},

	"include/found": {
		Message: func(args ...any) string {
			return "can't find script " + emph(args[0]) + " to include"
		},
		Explanation: func(errors Errors, pos int, args ...any) string {
			return "The path was tried absolute, then relative to the including script, " +
				"then against each configured include path, then relative to the working " +
				"directory, and nothing matched a compiled module or a readable file. " +
				"Since this was an include and not a require, execution carries on and the " +
				"inclusion returns 'false'."
		},
	},

	"include/read": {
		Message: func(args ...any) string {
			return "found file " + emph(args[0]) + " but can't read it: " + emph(args[1])
		},
		Explanation: func(errors Errors, pos int, args ...any) string {
			return "No compiled module matched the include path, so the runtime fell back " +
				"to streaming the raw file as output, and then the read failed."
		},
	},

	"registry/module/version": {
		Message: func(args ...any) string {
			return "module " + emph(args[0]) + " requires runtime " + emph(args[1]) + " but this is " + emph(args[2])
		},
		Explanation: func(errors Errors, pos int, args ...any) string {
			return "A loadable module may declare a semantic-version constraint on the " +
				"runtime it is willing to run under. This one did, and the constraint " +
				"isn't satisfied, so the module was not registered."
		},
	},

	"registry/symbol/conflict": {
		Message: func(args ...any) string {
			return "module " + emph(args[0]) + " redeclares " + emph(args[1])
		},
		Explanation: func(errors Errors, pos int, args ...any) string {
			return "Two loaded modules may contribute symbols to the same namespace, but " +
				"they can't both define the same name. This is a conflict at module-load " +
				"time, before any request has even started."
		},
	},

	"require/found": {
		Message: func(args ...any) string {
			return "can't find script " + emph(args[0]) + " to require"
		},
		Explanation: func(errors Errors, pos int, args ...any) string {
			return "The path was tried absolute, then relative to the including script, " +
				"then against each configured include path, then relative to the working " +
				"directory, and nothing matched a compiled module or a readable file. " +
				"Since this was a require, that is a hard failure."
		},
	},

	"resolve/found": {
		Message: func(args ...any) string {
			return "unknown symbol " + emph(args[0])
		},
		Explanation: func(errors Errors, pos int, args ...any) string {
			return "The name was not declared by any loaded module, has not been declared " +
				"during this request, and the autoloader, if one was supplied, didn't " +
				"declare it either."
		},
	},

	"teardown/callback": {
		Message: func(args ...any) string {
			return "shutdown callback failed: " + emph(args[0])
		},
		Explanation: func(errors Errors, pos int, args ...any) string {
			return "A shutdown callback registered on the request context failed during " +
				"teardown. The remaining callbacks and teardown phases still ran."
		},
	},

	"teardown/dispose": {
		Message: func(args ...any) string {
			return "disposing resource failed: " + emph(args[0])
		},
		Explanation: func(errors Errors, pos int, args ...any) string {
			return "A disposable resource registered on the request context failed to " +
				"dispose during teardown. The remaining teardown phases still ran."
		},
	},

	"teardown/output": {
		Message: func(args ...any) string {
			return "finalizing buffered output failed: " + emph(args[0])
		},
		Explanation: func(errors Errors, pos int, args ...any) string {
			return "The buffered output of the request could not be flushed during " +
				"teardown. Temporary-file cleanup still ran."
		},
	},

	"teardown/session": {
		Message: func(args ...any) string {
			return "closing session failed: " + emph(args[0])
		},
		Explanation: func(errors Errors, pos int, args ...any) string {
			return "The session tied to the request context could not be closed cleanly " +
				"during teardown. The remaining teardown phases still ran."
		},
	},
}
