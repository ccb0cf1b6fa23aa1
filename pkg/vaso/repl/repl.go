package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/sambeau/vaso/pkg/vaso/engine"
	"github.com/sambeau/vaso/pkg/vaso/errors"
	"github.com/sambeau/vaso/pkg/vaso/lexer"
	"github.com/sambeau/vaso/pkg/vaso/stdlib"
	"github.com/sambeau/vaso/pkg/vaso/vaso"
)

const PROMPT = ">> "
const CONTINUATION_PROMPT = ".. "

const VASO_LOGO = `
█░█ ▄▀█ █▀ █▀█
▀▄▀ █▀█ ▄█ █▄█ `

// Config configures a REPL.
type Config struct {
	Version     string
	Prompt      string // defaults to PROMPT
	HistoryFile string // defaults to .vaso_history in the temp directory
	Options     vaso.Options
}

// Session keeps one engine alive across inputs. Each complete input is
// appended to the program and run from where the previous one stopped.
type Session struct {
	opts   vaso.Options
	engine *engine.Engine
}

// NewSession creates a session with an empty program. Output and
// diagnostics go to out unless opts already routes them elsewhere.
func NewSession(opts vaso.Options, out io.Writer) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = vaso.WriterLogger(out)
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = func(err *errors.VasoError) {
			io.WriteString(out, err.PrettyString())
			io.WriteString(out, "\n")
		}
	}
	if opts.Filename == "" {
		opts.Filename = "<repl>"
	}
	if opts.Library == nil {
		opts.Library = stdlib.New(opts.Stdlib)
	}

	s := &Session{opts: opts}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Eval runs one complete input. Lexical and block errors leave the
// session unchanged.
func (s *Session) Eval(input string) error {
	tokens, err := lexer.Tokenize(input, s.opts.Filename)
	if err != nil {
		return err
	}
	if err := s.engine.Append(tokens); err != nil {
		return err
	}
	s.engine.Run()
	return nil
}

// Reset discards every binding.
func (s *Session) Reset() error {
	e, err := engine.New(nil, s.opts.EngineOptions())
	if err != nil {
		return err
	}
	s.engine = e
	return nil
}

// Names returns the bound variable and function names.
func (s *Session) Names() []string {
	return s.engine.Names()
}

// Start starts the REPL with line editing, history, and tab completion
func Start(in io.Reader, out io.Writer, cfg Config) error {
	session, err := NewSession(cfg.Options, out)
	if err != nil {
		return err
	}

	line := liner.NewLiner()
	defer line.Close()

	// Enable Ctrl+C to abort current line
	line.SetCtrlCAborts(true)

	line.SetCompleter(func(line string) []string {
		return filterCompletions(line, completionWords(session))
	})

	historyFile := cfg.HistoryFile
	if historyFile == "" {
		historyFile = filepath.Join(os.TempDir(), ".vaso_history")
	}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	basePrompt := cfg.Prompt
	if basePrompt == "" {
		basePrompt = PROMPT
	}

	fmt.Fprintf(out, "%s", VASO_LOGO)
	fmt.Fprintln(out, "v", cfg.Version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	var inputBuffer strings.Builder

	for {
		currentPrompt := basePrompt
		if inputBuffer.Len() > 0 {
			currentPrompt = CONTINUATION_PROMPT
		}
		input, err := line.Prompt(currentPrompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				// Ctrl+C clears any buffered input
				if inputBuffer.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				inputBuffer.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return nil
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)
		if inputBuffer.Len() == 0 && (trimmed == "exit" || trimmed == "quit") {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		if inputBuffer.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			handleReplCommand(trimmed, session, out)
			continue
		}

		if inputBuffer.Len() == 0 && trimmed == "" {
			continue
		}

		if inputBuffer.Len() > 0 {
			inputBuffer.WriteString("\n")
		}
		inputBuffer.WriteString(input)

		fullInput := inputBuffer.String()
		if needsMoreInput(fullInput) {
			continue
		}

		line.AppendHistory(fullInput)
		if err := session.Eval(fullInput); err != nil {
			printError(out, err)
		}
		inputBuffer.Reset()
	}
}

// handleReplCommand handles REPL meta-commands that start with ':'
func handleReplCommand(cmd string, session *Session, out io.Writer) {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(out, "REPL Commands:")
		fmt.Fprintln(out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(out, "  :env            Show variables in scope")
		fmt.Fprintln(out, "  :clear          Clear all variables and functions")
		fmt.Fprintln(out, "  exit, quit      Exit the REPL")

	case ":env":
		printEnvironment(session, out)

	case ":clear":
		if err := session.Reset(); err != nil {
			printError(out, err)
			return
		}
		fmt.Fprintln(out, "Environment cleared")

	default:
		fmt.Fprintf(out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}

// printEnvironment displays every binding, sorted by name
func printEnvironment(session *Session, out io.Writer) {
	names := session.Names()
	if len(names) == 0 {
		fmt.Fprintln(out, "(no variables)")
		return
	}

	for _, name := range names {
		v, _ := session.engine.Lookup(name)
		rendered := v.Inspect()
		if len(rendered) > 60 {
			rendered = rendered[:57] + "..."
		}
		fmt.Fprintf(out, "  %s: %s = %s\n", name, v.Type(), rendered)
	}
}

// completionWords gathers keywords, stdlib functions and the session's
// bindings.
func completionWords(session *Session) []string {
	words := lexer.Keywords()
	words = append(words, stdlib.Functions()...)
	words = append(words, session.Names()...)
	sort.Strings(words)
	return words
}

// filterCompletions returns the words that complete the last word of line.
// A completion replaces the whole line, so the prefix before the last word
// is kept.
func filterCompletions(line string, words []string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	// Don't complete if line ends with whitespace (including tabs from pasting)
	if line[len(line)-1] == ' ' || line[len(line)-1] == '\t' {
		return nil
	}

	start := strings.LastIndexAny(line, " \t(,[") + 1
	prefix, lastWord := line[:start], line[start:]

	var matches []string
	for _, word := range words {
		if strings.HasPrefix(word, lastWord) {
			matches = append(matches, prefix+word)
		}
	}
	return matches
}

// needsMoreInput reports whether input has unclosed braces, brackets or
// parentheses outside strings and comments.
func needsMoreInput(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	braceCount := 0
	bracketCount := 0
	parenCount := 0
	inString := false

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if inString {
			switch ch {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '/':
			if i+1 < len(input) && input[i+1] == '/' {
				for i < len(input) && input[i] != '\n' {
					i++
				}
			}
		case '{':
			braceCount++
		case '}':
			braceCount--
		case '[':
			bracketCount++
		case ']':
			bracketCount--
		case '(':
			parenCount++
		case ')':
			parenCount--
		}
	}

	return braceCount > 0 || bracketCount > 0 || parenCount > 0
}

func printError(out io.Writer, err error) {
	if verr, ok := err.(*errors.VasoError); ok {
		io.WriteString(out, verr.PrettyString())
	} else {
		io.WriteString(out, err.Error())
	}
	io.WriteString(out, "\n")
}
