// Package vaso provides a public API for embedding the Vaso interpreter.
//
//	err := vaso.Run(source, vaso.Options{Logger: vaso.WriterLogger(w)})
//
// Run returns an error only for problems that stop a program from starting:
// an invalid character, an unterminated string or unbalanced braces. Every
// other failure is an error status inside the running program, reported
// through Options.Diagnostics when it is worth a warning.
package vaso

import (
	"github.com/sambeau/vaso/pkg/vaso/engine"
	"github.com/sambeau/vaso/pkg/vaso/errors"
	"github.com/sambeau/vaso/pkg/vaso/lexer"
	"github.com/sambeau/vaso/pkg/vaso/stdlib"
)

// Options configures a program run.
type Options struct {
	Filename    string
	Logger      Logger
	Diagnostics func(*errors.VasoError)

	// Stdlib configures the standard library. Ignored when Library is set.
	Stdlib  stdlib.Options
	Library *stdlib.Library

	AllowUnbalanced bool
	WarnConditions  bool
}

// Compile scans source and prepares an engine ready to Run.
func Compile(source string, opts Options) (*engine.Engine, error) {
	tokens, err := lexer.Tokenize(source, opts.Filename)
	if err != nil {
		return nil, err
	}
	return engine.New(tokens, opts.EngineOptions())
}

// Run compiles and executes source.
func Run(source string, opts Options) error {
	e, err := Compile(source, opts)
	if err != nil {
		return err
	}
	e.Run()
	return nil
}

// Check scans source and verifies its braces without running anything.
// It returns nil for a program that would start.
func Check(source, filename string) *errors.VasoError {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		return err.(*errors.VasoError)
	}
	if err := engine.BuildJumpMap(tokens).Err(tokens); err != nil {
		return err.WithFile(filename)
	}
	return nil
}

// EngineOptions returns the engine configuration Run uses. The REPL builds
// its long-lived engine from it.
func (o Options) EngineOptions() engine.Options {
	library := o.Library
	if library == nil {
		library = stdlib.New(o.Stdlib)
	}
	logger := o.Logger
	if logger == nil {
		logger = engine.DefaultLogger
	}
	return engine.Options{
		Logger:          logger,
		Dispatcher:      library,
		Diagnostics:     o.Diagnostics,
		Filename:        o.Filename,
		AllowUnbalanced: o.AllowUnbalanced,
		WarnConditions:  o.WarnConditions,
	}
}
