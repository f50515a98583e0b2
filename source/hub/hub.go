package hub

// The hub is the inspector: an interactive wrapper around one app registry
// and one live request context, for poking at the runtime from the command
// line. It is a development tool, not part of the request path.

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/martin-dore/dace/source/context"
	"github.com/martin-dore/dace/source/err"
	"github.com/martin-dore/dace/source/logging"
	"github.com/martin-dore/dace/source/modules"
	"github.com/martin-dore/dace/source/registry"
	"github.com/martin-dore/dace/source/text"
	"github.com/martin-dore/dace/source/values"
)

type Hub struct {
	in  io.Reader
	out io.Writer

	app     *registry.AppRegistry
	ctx     *context.Context
	watcher *modules.Watcher

	// The errors of the last command that produced any, for 'why'.
	lastErrors err.Errors
}

func New(in io.Reader, out io.Writer) *Hub {
	appDir, _ := filepath.Abs(filepath.Dir(os.Args[0]))
	hub := Hub{in: in, out: out, app: registry.NewAppRegistry()}
	hub.ctx = hub.makeContext(appDir)
	return &hub
}

func (hub *Hub) makeContext(root string) *context.Context {
	wd, _ := os.Getwd()
	return context.NewContext(hub.app, context.Config{
		Output:           context.MakeBufferedOutput(hub.out),
		Logger:           logging.New(hub.out, "warn", "text"),
		Root:             root,
		WorkingDirectory: wd,
	})
}

// Do executes one line of inspector input and says whether the user asked to
// quit.
func (hub *Hub) Do(line string) bool {
	words := strings.Fields(line)
	if len(words) == 0 {
		return false
	}
	verb, args := words[0], words[1:]
	switch verb {
	case "quit":
		hub.tearDownContext()
		hub.WriteString(text.OK_RESPONSE)
		return true
	case "help":
		hub.WriteString(helpText)
	case "new":
		hub.tearDownContext()
		appDir, _ := filepath.Abs(filepath.Dir(os.Args[0]))
		hub.ctx = hub.makeContext(appDir)
		hub.WriteString("Started context " + text.Cyan(hub.ctx.Id.String()) + ".\n")
	case "teardown":
		hub.tearDownContext()
		hub.WriteString(text.OK_RESPONSE)
	case "symbols":
		hub.showSymbols()
	case "consts":
		hub.showConstants()
	case "const":
		hub.doConst(args)
	case "get":
		hub.doGet(args)
	case "include", "require":
		hub.doInclude(verb, args)
	case "watch":
		hub.doWatch(args)
	case "why":
		hub.doWhy(args)
	default:
		hub.WriteError("the hub doesn't know the command " + text.Emph(verb) + ". Try 'help'.")
	}
	return false
}

func (hub *Hub) tearDownContext() {
	if hub.ctx == nil {
		return
	}
	if failures := hub.ctx.Teardown(); len(failures) > 0 {
		hub.lastErrors = failures
		for _, e := range failures {
			hub.WriteError(e.Message)
		}
	}
	hub.ctx = nil
}

func (hub *Hub) showSymbols() {
	if !hub.requireContext() {
		return
	}
	names := []values.Value{}
	for d := range hub.ctx.Enumerate() {
		names = append(names, values.Value{T: values.STRING, V: d.SymbolName()})
	}
	if len(names) == 0 {
		hub.WriteString("No symbols are declared.\n")
		return
	}
	hub.WriteString(values.Describe(values.MakeList(names...)) + "\n")
}

func (hub *Hub) showConstants() {
	if !hub.requireContext() {
		return
	}
	any := false
	for name, v := range hub.ctx.EnumerateConstants() {
		any = true
		hub.WriteString(text.BULLET + name + " = " + values.Describe(v) + "\n")
	}
	if !any {
		hub.WriteString("No constants are defined.\n")
	}
}

func (hub *Hub) doConst(args []string) {
	if !hub.requireContext() {
		return
	}
	switch len(args) {
	case 1:
		if v, ok := hub.ctx.Constant(args[0]); ok {
			hub.WriteString(values.Describe(v) + "\n")
		} else {
			hub.WriteError("no constant " + text.Emph(args[0]) + " is defined.")
		}
	case 2:
		if hub.ctx.DefineConstant(args[0], parseValue(args[1])) {
			hub.WriteString(text.OK_RESPONSE)
		} else {
			hub.WriteString(text.WARNING + text.Emph(args[0]) + " is already defined and keeps its old value.\n")
		}
	default:
		hub.WriteError("'const' wants a name, or a name and a value.")
	}
}

func (hub *Hub) doGet(args []string) {
	if !hub.requireContext() || !hub.requireArgs("get", args, 1) {
		return
	}
	d, e := hub.ctx.ResolveOrAutoload(args[0])
	if e != nil {
		hub.reportError(e)
		return
	}
	hub.WriteString(d.Kind().String() + " " + text.Emph(d.SymbolName()) +
		" from module " + text.Emph(d.DeclaringModule()) + "\n")
}

func (hub *Hub) doInclude(verb string, args []string) {
	if !hub.requireContext() || !hub.requireArgs(verb, args, 1) {
		return
	}
	failHard := verb == "require"
	result, e := hub.ctx.Include(args[0], map[string]values.Value{}, values.NIL, "", false, failHard)
	if e != nil {
		hub.reportError(e)
		return
	}
	hub.WriteString(values.Describe(result) + "\n")
}

func (hub *Hub) doWatch(args []string) {
	if !hub.requireArgs("watch", args, 1) {
		return
	}
	if hub.watcher == nil {
		w, goErr := modules.NewWatcher(hub.app.Scripts(), logging.New(hub.out, "warn", "text"))
		if goErr != nil {
			hub.WriteError(goErr.Error())
			return
		}
		hub.watcher = w
	}
	if goErr := hub.watcher.Add(args[0]); goErr != nil {
		hub.WriteError(goErr.Error())
		return
	}
	hub.WriteString(text.OK_RESPONSE)
}

func (hub *Hub) doWhy(args []string) {
	if len(hub.lastErrors) == 0 {
		hub.WriteError("there are no recent errors to explain.")
		return
	}
	i := 0
	if len(args) > 0 {
		var convErr error
		i, convErr = strconv.Atoi(args[0])
		if convErr != nil {
			hub.WriteError("'why' wants an error number.")
			return
		}
	}
	explanation, goErr := err.Explain(hub.lastErrors, i)
	if goErr != nil {
		hub.WriteError(goErr.Error())
		return
	}
	hub.WriteString(explanation + "\n")
}

func (hub *Hub) requireContext() bool {
	if hub.ctx == nil {
		hub.WriteError("there is no live context. Say 'new' to start one.")
		return false
	}
	return true
}

func (hub *Hub) requireArgs(verb string, args []string, n int) bool {
	if len(args) != n {
		hub.WriteError("wrong number of arguments for " + text.Emph(verb) + ".")
		return false
	}
	return true
}

func (hub *Hub) reportError(e *err.Error) {
	hub.lastErrors = err.Errors{e}
	hub.WriteError(e.Message)
}

func (hub *Hub) WriteError(s string) {
	hub.WriteString(text.RED + "Hub error" + text.RESET + ": " + s + "\n")
}

func (hub *Hub) WriteString(s string) {
	io.WriteString(hub.out, s)
}

func parseValue(s string) values.Value {
	if i, e := strconv.Atoi(s); e == nil {
		return values.Value{T: values.INT, V: i}
	}
	if f, e := strconv.ParseFloat(s, 64); e == nil {
		return values.Value{T: values.FLOAT, V: f}
	}
	switch s {
	case "true":
		return values.TRUE
	case "false":
		return values.FALSE
	case "null":
		return values.NIL
	}
	return values.Value{T: values.STRING, V: strings.Trim(s, `"`)}
}

var helpText = "\nThe hub understands the following commands:\n\n" +
	text.BULLET + "'new': tear down the current context and start a fresh one\n" +
	text.BULLET + "'teardown': tear down the current context\n" +
	text.BULLET + "'symbols': list the symbols visible in the context\n" +
	text.BULLET + "'consts': list the constants defined in the context\n" +
	text.BULLET + "'const <name>': show a constant; 'const <name> <value>': define one\n" +
	text.BULLET + "'get <name>': resolve a symbol, autoloading if need be\n" +
	text.BULLET + "'include <path>', 'require <path>': run a script in the context\n" +
	text.BULLET + "'watch <dir>': mark scripts stale when files in a directory change\n" +
	text.BULLET + "'why [n]': explain the nth error of the last command\n" +
	text.BULLET + "'quit': tear down and leave\n\n"
