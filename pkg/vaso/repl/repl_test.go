package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sambeau/vaso/pkg/vaso/value"
	"github.com/sambeau/vaso/pkg/vaso/vaso"
)

func newSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s, err := NewSession(vaso.Options{}, &out)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s, &out
}

func TestSessionKeepsState(t *testing.T) {
	s, out := newSession(t)

	inputs := []string{
		`x = 1`,
		`fn bump(n) { x += n }`,
		`bump(41)`,
		`print(x)`,
	}
	for _, input := range inputs {
		if err := s.Eval(input); err != nil {
			t.Fatalf("Eval(%q): %v", input, err)
		}
	}

	if out.String() != "42\n" {
		t.Errorf("Expected %q, got %q", "42\n", out.String())
	}
	v, ok := s.engine.Lookup("x")
	if !ok || !value.Equal(v, value.Int{Value: 42}) {
		t.Errorf("x = %v, want 42", v)
	}
}

func TestSessionLoopAcrossInputs(t *testing.T) {
	s, out := newSession(t)

	if err := s.Eval(`xs = [1, 2, 3]`); err != nil {
		t.Fatal(err)
	}
	if err := s.Eval("for n in xs {\n  print(n)\n}"); err != nil {
		t.Fatal(err)
	}
	if err := s.Eval(`print("after")`); err != nil {
		t.Fatal(err)
	}
	if out.String() != "1\n2\n3\nafter\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestSessionRejectsBadInput(t *testing.T) {
	s, out := newSession(t)

	if err := s.Eval(`x = 1`); err != nil {
		t.Fatal(err)
	}
	if err := s.Eval(`x = 2 }`); err == nil {
		t.Error("expected unmatched brace error")
	}
	if err := s.Eval(`x = "open`); err == nil {
		t.Error("expected unterminated string error")
	}
	if err := s.Eval(`print(x)`); err != nil {
		t.Fatal(err)
	}
	if out.String() != "1\n" {
		t.Errorf("rejected input changed the session: %q", out.String())
	}
}

func TestSessionDiagnostics(t *testing.T) {
	s, out := newSession(t)

	if err := s.Eval(`fn greet(name) { print(name) }`); err != nil {
		t.Fatal(err)
	}
	if err := s.Eval(`gret("x")`); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "undefined function 'gret'") {
		t.Errorf("missing diagnostic in %q", out.String())
	}
	if !strings.Contains(out.String(), "greet") {
		t.Errorf("missing suggestion in %q", out.String())
	}
}

func TestReplCommands(t *testing.T) {
	s, out := newSession(t)
	if err := s.Eval(`name = "vaso"; n = 3`); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	handleReplCommand(":env", s, out)
	if got := out.String(); !strings.Contains(got, "name: Str = vaso") || !strings.Contains(got, "n: Int = 3") {
		t.Errorf("unexpected :env output %q", got)
	}

	out.Reset()
	handleReplCommand(":clear", s, out)
	if out.String() != "Environment cleared\n" {
		t.Errorf("unexpected :clear output %q", out.String())
	}

	out.Reset()
	handleReplCommand(":env", s, out)
	if out.String() != "(no variables)\n" {
		t.Errorf("Expected empty environment, got %q", out.String())
	}

	out.Reset()
	handleReplCommand(":help", s, out)
	if !strings.Contains(out.String(), ":clear") {
		t.Errorf("help does not list :clear: %q", out.String())
	}

	out.Reset()
	handleReplCommand(":nope", s, out)
	if !strings.HasPrefix(out.String(), "Unknown command: :nope") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestNeedsMoreInput(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"", false},
		{"x = 1", false},
		{"while x < 3 {", true},
		{"while x < 3 {\n  x += 1\n}", false},
		{"xs = [1, 2,", true},
		{"print(", true},
		{`print("{")`, false},
		{`print("a \" {")`, false},
		{"x = 1 // {", false},
		{"if on {\n // }\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := needsMoreInput(tt.input); got != tt.expected {
				t.Errorf("needsMoreInput(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFilterCompletions(t *testing.T) {
	words := []string{"Math.abs", "Math.max", "print", "while", "width"}

	tests := []struct {
		line     string
		expected []string
	}{
		{"", nil},
		{"pr", []string{"print"}},
		{"wh", []string{"while"}},
		{"w", []string{"while", "width"}},
		{"x = Math.", []string{"x = Math.abs", "x = Math.max"}},
		{"print(wi", []string{"print(width"}},
		{"print ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := filterCompletions(tt.line, words)
			if strings.Join(got, "|") != strings.Join(tt.expected, "|") {
				t.Errorf("filterCompletions(%q) = %q, want %q", tt.line, got, tt.expected)
			}
		})
	}
}

func TestCompletionWords(t *testing.T) {
	s, _ := newSession(t)
	if err := s.Eval(`counter = 1`); err != nil {
		t.Fatal(err)
	}

	words := strings.Join(completionWords(s), " ")
	for _, want := range []string{"while", "Time.now", "counter"} {
		if !strings.Contains(words, want) {
			t.Errorf("completion words missing %q", want)
		}
	}
}
