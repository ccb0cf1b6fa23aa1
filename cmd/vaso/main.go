package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sambeau/vaso/config"
	verrors "github.com/sambeau/vaso/pkg/vaso/errors"
	"github.com/sambeau/vaso/pkg/vaso/repl"
	"github.com/sambeau/vaso/pkg/vaso/vaso"
	"github.com/sambeau/vaso/pkg/vaso/watch"
)

// Version is set at compile time via -ldflags
var Version = "0.1.0"

// errReported means the failure has already been printed.
var errReported = errors.New("reported")

// usageError marks bad command-line usage (exit status 2).
type usageError struct {
	error
}

func main() {
	ctx := context.Background()
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	var usage usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &usage):
		return 2
	default:
		return 1
	}
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("vaso", flag.ContinueOnError)
	flags.SetOutput(io.Discard) // Suppress default -h output

	var (
		showHelp        = flags.Bool("help", false, "Show help")
		showVersion     = flags.Bool("version", false, "Show version")
		evalCode        = flags.String("eval", "", "Evaluate code string")
		checkMode       = flags.Bool("check", false, "Check files without running them")
		watchMode       = flags.Bool("watch", false, "Re-run the script when it changes")
		configPath      = flags.String("config", "", "Path to config file")
		showConfig      = flags.Bool("show-config", false, "Print the effective configuration")
		locale          = flags.String("locale", "", "Locale for dates and numbers")
		noRead          = flags.Bool("no-read", false, "Deny all file reads")
		noWrite         = flags.Bool("no-write", false, "Deny all file writes")
		restrictRead    = flags.String("restrict-read", "", "Comma-separated read blacklist paths")
		restrictWrite   = flags.String("restrict-write", "", "Comma-separated write blacklist paths")
		allowExecute    = flags.String("allow-execute", "", "Comma-separated execute whitelist paths")
		allowExecuteAll = flags.Bool("allow-execute-all", false, "Allow unrestricted executes")
		warnConditions  = flags.Bool("warn-conditions", false, "Warn about unrecognized conditions")
		allowUnbalanced = flags.Bool("allow-unbalanced", false, "Run programs with unmatched braces")
	)
	flags.BoolVar(showHelp, "h", false, "Show help")
	flags.BoolVar(showVersion, "V", false, "Show version")
	flags.StringVar(evalCode, "e", "", "Evaluate code string")
	flags.BoolVar(allowExecuteAll, "x", false, "Shorthand for --allow-execute-all")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(stdout)
			return nil
		}
		printUsage(stderr)
		return usageError{err}
	}

	if *showHelp {
		printUsage(stdout)
		return nil
	}
	if *showVersion {
		fmt.Fprintf(stdout, "vaso version %s\n", Version)
		return nil
	}

	cfg, err := config.Load(*configPath, getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Apply CLI overrides
	if *locale != "" {
		cfg.Locale = *locale
	}
	if *noRead {
		cfg.Security.NoRead = true
	}
	if *noWrite {
		cfg.Security.NoWrite = true
	}
	if *allowExecuteAll {
		cfg.Security.AllowExecuteAll = true
	}
	if *warnConditions {
		cfg.Engine.WarnConditions = true
	}
	if *allowUnbalanced {
		cfg.Engine.StrictBlocks = false
	}
	for _, list := range []struct {
		flag  string
		value string
		dest  *[]string
	}{
		{"--restrict-read", *restrictRead, &cfg.Security.RestrictRead},
		{"--restrict-write", *restrictWrite, &cfg.Security.RestrictWrite},
		{"--allow-execute", *allowExecute, &cfg.Security.AllowExecute},
	} {
		if list.value == "" {
			continue
		}
		paths, err := parseAndResolvePaths(list.value)
		if err != nil {
			return usageError{fmt.Errorf("invalid %s: %w", list.flag, err)}
		}
		*list.dest = append(*list.dest, paths...)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if *showConfig {
		out, err := config.Dump(cfg)
		if err != nil {
			return err
		}
		_, err = stdout.Write(out)
		return err
	}

	switch {
	case *evalCode != "":
		return executeSource(*evalCode, "<eval>", flags.Args(), cfg, stdout, stderr, getenv)

	case *checkMode:
		if flags.NArg() == 0 {
			return usageError{errors.New("--check requires at least one file")}
		}
		return checkFiles(flags.Args(), stderr)

	case *watchMode:
		if flags.NArg() == 0 {
			return usageError{errors.New("--watch requires a file")}
		}
		ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return watchFile(ctx, flags.Arg(0), flags.Args()[1:], cfg, stdout, stderr, getenv)

	case flags.NArg() > 0:
		return executeFile(flags.Arg(0), flags.Args()[1:], cfg, stdout, stderr, getenv)

	default:
		// The session prints warnings itself; each input is its own source.
		opts := engineOptions(cfg, "<repl>", nil, "", stdout, stderr, getenv)
		opts.Diagnostics = nil
		return repl.Start(stdin, stdout, repl.Config{
			Version:     Version,
			Prompt:      cfg.Repl.Prompt,
			HistoryFile: cfg.Repl.HistoryFile,
			Options:     opts,
		})
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `vaso - Vaso language interpreter version %s

Usage:
  vaso [options] [file] [args...]
  vaso -e "code" [args...]
  vaso --check <file>...
  vaso --watch <file> [args...]

Display Options:
  -h, --help                Show this help message
  -V, --version             Show version information
  --show-config             Print the effective configuration

Evaluation Options:
  -e, --eval <code>         Evaluate code string
  --check                   Check files without running them
  --watch                   Re-run the script whenever it changes
  --config PATH             Path to config file (default: auto-detect)
  --locale NAME             Locale for Time.format and Text.number (e.g. de_DE)
  --warn-conditions         Warn about conditions of an unrecognized shape
  --allow-unbalanced        Run programs with unmatched braces

Security Options:
  --restrict-read=PATHS     Deny reading from comma-separated paths
  --no-read                 Deny all file reads
  --restrict-write=PATHS    Deny writing to comma-separated paths
  --no-write                Deny all file writes
  --allow-execute=PATHS     Allow Sys.exec for commands in paths
  --allow-execute-all, -x   Allow unrestricted Sys.exec

Config Resolution:
  1. --config flag
  2. VASO_CONFIG environment variable
  3. ./vaso.yaml
  4. ~/.config/vaso/vaso.yaml

Exit Status:
  0  success
  1  invalid program or unreadable file
  2  usage error

Examples:
  vaso                      Start interactive REPL
  vaso script.vs            Execute a Vaso script
  vaso script.vs a b        Execute with arguments (Sys.arg(0) is "a")
  vaso -e 'print("hi")'     Evaluate inline code
  vaso --check *.vs         Check multiple files
  vaso --watch script.vs    Re-run on save
  vaso -x deploy.vs         Allow the script to run commands
`, Version)
}

// engineOptions configures a run of source. Runtime warnings are printed
// to stderr with the offending source line.
func engineOptions(cfg *config.Config, filename string, args []string, source string, stdout, stderr io.Writer, getenv func(string) string) vaso.Options {
	lines := strings.Split(source, "\n")
	return vaso.Options{
		Filename: filename,
		Logger:   vaso.WriterLogger(stdout),
		Diagnostics: func(err *verrors.VasoError) {
			printError(stderr, lines, err)
		},
		Stdlib:          cfg.StdlibOptions(args, getenv),
		AllowUnbalanced: !cfg.Engine.StrictBlocks,
		WarnConditions:  cfg.Engine.WarnConditions,
	}
}

// executeSource runs source, printing a program that cannot start with
// its source context.
func executeSource(source, filename string, args []string, cfg *config.Config, stdout, stderr io.Writer, getenv func(string) string) error {
	err := vaso.Run(source, engineOptions(cfg, filename, args, source, stdout, stderr, getenv))
	if err == nil {
		return nil
	}

	var verr *verrors.VasoError
	if errors.As(err, &verr) {
		printError(stderr, strings.Split(source, "\n"), verr)
		return errReported
	}
	return err
}

// executeFile reads and executes a vaso source file
func executeFile(filename string, args []string, cfg *config.Config, stdout, stderr io.Writer, getenv func(string) string) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading file '%s': %w", filename, err)
	}
	return executeSource(string(content), filename, args, cfg, stdout, stderr, getenv)
}

// checkFiles scans each file and verifies its braces without running it
func checkFiles(files []string, stderr io.Writer) error {
	failed := false

	for _, filename := range files {
		content, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("reading %s: %w", filename, err)
		}

		if verr := vaso.Check(string(content), filename); verr != nil {
			printError(stderr, strings.Split(string(content), "\n"), verr)
			failed = true
		}
	}

	if failed {
		return errReported
	}
	return nil
}

// watchFile runs the script now and again on every save until ctx is done.
// A run that fails to start is reported and the watch continues.
func watchFile(ctx context.Context, filename string, args []string, cfg *config.Config, stdout, stderr io.Writer, getenv func(string) string) error {
	runOnce := func() {
		err := executeFile(filename, args, cfg, stdout, stderr, getenv)
		if err != nil && !errors.Is(err, errReported) {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
	}

	w, err := watch.New(filename, cfg.Path, cfg.Watch.Debounce, runOnce, stdout, stderr)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	return w.Run(ctx)
}

func printError(w io.Writer, lines []string, err *verrors.VasoError) {
	fmt.Fprintln(w, err.PrettyString())
	printSourceContext(w, lines, err.Line, err.Column)
}

// printSourceContext prints the source line and error pointer
func printSourceContext(w io.Writer, lines []string, lineNum, colNum int) {
	if lineNum <= 0 || lineNum > len(lines) {
		return
	}

	sourceLine := lines[lineNum-1]

	// Columns trimmed from the left, counting tabs as 8
	trimCount := 0
	for i := 0; i < len(sourceLine); i++ {
		if sourceLine[i] == '\t' {
			trimCount += 8
		} else if sourceLine[i] == ' ' {
			trimCount++
		} else {
			break
		}
	}

	fmt.Fprintf(w, "    %s\n", strings.TrimLeft(sourceLine, " \t"))

	if colNum > 0 {
		visualCol := 0
		for i := 0; i < colNum-1 && i < len(sourceLine); i++ {
			if sourceLine[i] == '\t' {
				visualCol += 8
			} else {
				visualCol++
			}
		}

		adjustedCol := max(visualCol-trimCount, 0)
		fmt.Fprintf(w, "    %s^\n", strings.Repeat(" ", adjustedCol))
	}
}

// parseAndResolvePaths parses comma-separated paths and resolves them to absolute paths
func parseAndResolvePaths(pathList string) ([]string, error) {
	parts := strings.Split(pathList, ",")
	resolved := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(p, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("cannot expand ~: %w", err)
			}
			p = filepath.Join(home, p[2:])
		}

		absPath, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", p, err)
		}
		resolved = append(resolved, filepath.Clean(absPath))
	}

	return resolved, nil
}
