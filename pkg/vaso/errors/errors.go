// Package errors provides structured diagnostics for the Vaso language.
//
// VasoError covers the two places a Vaso program can go wrong outside of
// the language's own status values: fatal lexical/block errors detected
// before execution starts, and recoverable statement-level diagnostics
// reported while the engine runs.
package errors

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassLex       ErrorClass = "lex"       // Scanner errors (fatal)
	ClassBlock     ErrorClass = "block"     // Unbalanced braces (fatal)
	ClassType      ErrorClass = "type"      // Type mismatches
	ClassUndefined ErrorClass = "undefined" // Not found/defined
	ClassSyntax    ErrorClass = "syntax"    // Unrecognized statement shapes
	ClassSecurity  ErrorClass = "security"  // Access denied
)

// VasoError represents a diagnostic produced while scanning or running a program.
type VasoError struct {
	Class   ErrorClass
	Code    string
	Message string
	Hints   []string
	Line    int // 1-based line (0 if unknown)
	Column  int // 1-based column (0 if unknown)
	File    string
	Data    map[string]any
}

// Error implements the error interface.
func (e *VasoError) Error() string {
	return e.String()
}

// String returns a single-line representation with location prefix and hints.
func (e *VasoError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for display.
func (e *VasoError) PrettyString() string {
	var sb strings.Builder

	if e.IsFatal() {
		sb.WriteString("Syntax error")
	} else {
		sb.WriteString("Runtime warning")
	}

	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d, column %d", e.Line, e.Column))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Use: ")
		} else {
			sb.WriteString(" or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// WithFile returns a copy of the error attributed to file.
func (e *VasoError) WithFile(file string) *VasoError {
	copy := *e
	copy.File = file
	return &copy
}

// IsFatal reports whether the error stops the program before it runs.
func (e *VasoError) IsFatal() bool {
	return e.Class == ClassLex || e.Class == ClassBlock
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass
	Template string   // Message template with {{.placeholders}}
	Hints    []string // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// Lexical errors
	"LEX-0001": {
		Class:    ClassLex,
		Template: "invalid character '{{.Char}}'",
	},
	"LEX-0002": {
		Class:    ClassLex,
		Template: "unterminated string",
	},

	// Block structure
	"BLOCK-0001": {
		Class:    ClassBlock,
		Template: "unmatched '{' (block is never closed)",
	},
	"BLOCK-0002": {
		Class:    ClassBlock,
		Template: "unmatched '}' (no block to close)",
	},

	// Runtime diagnostics
	"RUN-0001": {
		Class:    ClassType,
		Template: "for loop expects a List variable, got {{.Got}}",
		Hints:    []string{"{{.Name}} = [1, 2, 3]"},
	},
	"RUN-0002": {
		Class:    ClassUndefined,
		Template: "undefined function '{{.Name}}'",
	},
	"RUN-0003": {
		Class:    ClassSyntax,
		Template: "unrecognized {{.Keyword}} condition (treated as false)",
		Hints:    []string{"{{.Keyword}} x < 10 { ... }", "{{.Keyword}} flag { ... }"},
	},
	"RUN-0004": {
		Class:    ClassSyntax,
		Template: "invalid assignment value for '{{.Name}}'",
	},
	"RUN-0005": {
		Class:    ClassSyntax,
		Template: "unsupported statement in match case: '{{.Token}}'",
		Hints:    []string{"print(...)", "name = value", "name = Module.fn(...)"},
	},

	// Security
	"SEC-0002": {
		Class:    ClassSecurity,
		Template: "file read access denied: {{.Path}}",
	},
	"SEC-0003": {
		Class:    ClassSecurity,
		Template: "file write access denied: {{.Path}}",
	},
	"SEC-0004": {
		Class:    ClassSecurity,
		Template: "execute access denied: {{.Path}}",
		Hints:    []string{"vaso --allow-execute-all script.vs", "vaso -x script.vs"},
	},
}

// New creates a VasoError from the catalog.
func New(code string, data map[string]any) *VasoError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &VasoError{
			Class:   ClassType,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &VasoError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates a VasoError with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *VasoError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(a)][len(b)]
}

// FindClosestMatch finds the closest match to input among candidates.
// Returns "" when nothing is close enough to be a plausible typo.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	inputLower := strings.ToLower(input)

	var bestMatch string
	bestDistance := -1

	for _, candidate := range candidates {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	// Short words (1-3): max 1 edit, medium (4-6): 2, longer: 3
	threshold := 1
	if len(input) >= 4 && len(input) <= 6 {
		threshold = 2
	} else if len(input) >= 7 {
		threshold = 3
	}

	if bestDistance <= 0 || bestDistance > threshold {
		return ""
	}

	return bestMatch
}

// NewUndefinedFunction creates an undefined function error with a "Did you mean?" hint.
func NewUndefinedFunction(name string, line, column int, known []string) *VasoError {
	err := NewWithPosition("RUN-0002", line, column, map[string]any{"Name": name})
	if suggestion := FindClosestMatch(name, known); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}
	return err
}
