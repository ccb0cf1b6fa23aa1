// Package stdlib implements the Vaso standard library: the host functions
// reached through qualified calls such as Time.now() or File.read(path).
//
// Every function returns a value. Failures of any kind, from a missing
// file to a malformed argument list, come back as error statuses, and an
// error status passed in as an argument is returned unchanged without
// calling the function at all.
package stdlib

import (
	"os"
	"sort"

	"github.com/sambeau/vaso/pkg/vaso/value"
)

// Options configures a Library.
type Options struct {
	Security *Policy
	Locale   string   // e.g. "en_US", "de_DE"
	Args     []string // script arguments, read by Sys.arg
	Getenv   func(string) string
	Mail     MailConfig
}

// Library dispatches qualified calls to the standard modules.
type Library struct {
	opts Options
	mail Provider
}

type builtin func(l *Library, args []value.Value) value.Value

var modules = map[string]map[string]builtin{
	"Time": timeFunctions,
	"Math": mathFunctions,
	"File": fileFunctions,
	"Sys":  sysFunctions,
	"Json": jsonFunctions,
	"Yaml": yamlFunctions,
	"Text": textFunctions,
	"Md":   markdownFunctions,
	"Html": htmlFunctions,
	"Db":   dbFunctions,
	"Hash": hashFunctions,
	"Sftp": sftpFunctions,
	"Mail": mailFunctions,
}

// New returns a Library. A mail provider that cannot be built from
// opts.Mail leaves Mail.send reporting the configuration problem.
func New(opts Options) *Library {
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.Locale == "" {
		opts.Locale = "en_US"
	}

	l := &Library{opts: opts}
	l.mail, _ = newProvider(opts.Mail)
	return l
}

// Dispatch calls module.function with args.
func (l *Library) Dispatch(module, function string, args []value.Value) value.Value {
	if err := checkErrors(args); err != nil {
		return err
	}

	functions, ok := modules[module]
	if !ok {
		return value.NewError("Module " + module + " not found")
	}
	fn, ok := functions[function]
	if !ok {
		return value.NewError(module + "." + function + " not found")
	}
	return fn(l, args)
}

// Functions returns every qualified function name, sorted.
func Functions() []string {
	var names []string
	for module, functions := range modules {
		for name := range functions {
			names = append(names, module+"."+name)
		}
	}
	sort.Strings(names)
	return names
}

// checkErrors returns the first error status among args.
func checkErrors(args []value.Value) value.Value {
	for _, arg := range args {
		if value.IsError(arg) {
			return arg
		}
	}
	return nil
}

// argError reports a call whose arguments do not match shape.
func argError(name, shape string) value.Value {
	return value.NewError(name + " needs " + shape)
}

func strArg(args []value.Value, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}
	s, ok := args[i].(value.Str)
	return s.Value, ok
}

func intArg(args []value.Value, i int) (int64, bool) {
	if i >= len(args) {
		return 0, false
	}
	n, ok := args[i].(value.Int)
	return n.Value, ok
}

// denied converts a policy check into an error status, or nil when allowed.
func (l *Library) denied(path, operation string) value.Value {
	if err := l.opts.Security.checkPathAccess(path, operation); err != nil {
		return value.NewError(err.Message)
	}
	return nil
}
