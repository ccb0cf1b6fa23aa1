package stdlib

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/sambeau/vaso/pkg/vaso/value"
)

var textFunctions = map[string]builtin{
	"upper":  textCase(cases.Upper, "Text.upper"),
	"lower":  textCase(cases.Lower, "Text.lower"),
	"title":  textCase(cases.Title, "Text.title"),
	"number": textNumber,
}

var markdownFunctions = map[string]builtin{
	"html": markdownHTML,
}

var htmlFunctions = map[string]builtin{
	"text": htmlText,
}

// languageTag parses locales written either way ("de_DE" or "de-DE").
func languageTag(locale string) language.Tag {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}

func textCase(caser func(language.Tag, ...cases.Option) cases.Caser, name string) builtin {
	return func(l *Library, args []value.Value) value.Value {
		text, ok := strArg(args, 0)
		if !ok {
			return argError(name, "(Str)")
		}
		return value.Str{Value: caser(languageTag(l.opts.Locale)).String(text)}
	}
}

// textNumber formats an integer with the locale's digit grouping.
func textNumber(l *Library, args []value.Value) value.Value {
	n, ok := intArg(args, 0)
	if !ok {
		return argError("Text.number", "(Int)")
	}
	p := message.NewPrinter(languageTag(l.opts.Locale))
	return value.Str{Value: p.Sprintf("%v", number.Decimal(n))}
}

func markdownHTML(l *Library, args []value.Value) value.Value {
	text, ok := strArg(args, 0)
	if !ok {
		return argError("Md.html", "(Str)")
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return value.NewError("Markdown Error: " + err.Error())
	}
	return value.Str{Value: buf.String()}
}

// htmlText strips markup and returns the visible text with whitespace
// collapsed. Script and style contents are dropped.
func htmlText(l *Library, args []value.Value) value.Value {
	markup, ok := strArg(args, 0)
	if !ok {
		return argError("Html.text", "(Str)")
	}

	z := html.NewTokenizer(strings.NewReader(markup))
	var words []string
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return value.Str{Value: strings.Join(words, " ")}
		case html.StartTagToken:
			if name, _ := z.TagName(); isHiddenTag(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isHiddenTag(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				words = append(words, strings.Fields(string(z.Text()))...)
			}
		}
	}
}

func isHiddenTag(name []byte) bool {
	s := string(name)
	return s == "script" || s == "style"
}
