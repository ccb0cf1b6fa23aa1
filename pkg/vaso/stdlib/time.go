package stdlib

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"

	"github.com/sambeau/vaso/pkg/vaso/value"
)

var timeFunctions = map[string]builtin{
	"now":    timeNow,
	"sleep":  timeSleep,
	"parse":  timeParse,
	"format": timeFormat,
}

func timeNow(l *Library, args []value.Value) value.Value {
	return value.Int{Value: time.Now().Unix()}
}

// timeSleep blocks for the given number of milliseconds.
func timeSleep(l *Library, args []value.Value) value.Value {
	ms, ok := intArg(args, 0)
	if !ok || ms < 0 {
		return argError("Time.sleep", "(Int ms)")
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
	return value.ON
}

// timeParse reads a date in almost any common layout and returns unix
// seconds. Ambiguous numeric dates follow the locale's day/month order.
func timeParse(l *Library, args []value.Value) value.Value {
	text, ok := strArg(args, 0)
	if !ok {
		return argError("Time.parse", "(Str)")
	}

	monthFirst := isMonthFirstLocale(l.opts.Locale)
	t, err := dateparse.ParseIn(strings.TrimSpace(text), time.UTC, dateparse.PreferMonthFirst(monthFirst))
	if err != nil {
		return value.NewError("Time Error: " + err.Error())
	}
	return value.Int{Value: t.Unix()}
}

// timeFormat renders unix seconds (UTC) with a Go layout or one of the
// styles short, medium, long and full, translated to the configured locale.
func timeFormat(l *Library, args []value.Value) value.Value {
	ts, ok := intArg(args, 0)
	if !ok {
		return argError("Time.format", "(Int, Str)")
	}
	layout := "medium"
	if len(args) > 1 {
		if layout, ok = strArg(args, 1); !ok {
			return argError("Time.format", "(Int, Str)")
		}
	}

	locale := getMondayLocale(l.opts.Locale)
	if style, ok := dateStyleFormat(layout, locale); ok {
		layout = style
	}
	return value.Str{Value: monday.Format(time.Unix(ts, 0).UTC(), layout, locale)}
}

var mondayLocales = map[string]monday.Locale{
	"en":    monday.LocaleEnUS,
	"en_us": monday.LocaleEnUS,
	"en_gb": monday.LocaleEnGB,
	"de":    monday.LocaleDeDE,
	"de_de": monday.LocaleDeDE,
	"fr":    monday.LocaleFrFR,
	"fr_fr": monday.LocaleFrFR,
	"fr_ca": monday.LocaleFrCA,
	"es":    monday.LocaleEsES,
	"es_es": monday.LocaleEsES,
	"it":    monday.LocaleItIT,
	"it_it": monday.LocaleItIT,
	"pt":    monday.LocalePtPT,
	"pt_br": monday.LocalePtBR,
	"nl":    monday.LocaleNlNL,
	"ru":    monday.LocaleRuRU,
	"pl":    monday.LocalePlPL,
	"sv":    monday.LocaleSvSE,
	"ja":    monday.LocaleJaJP,
	"zh":    monday.LocaleZhCN,
	"ko":    monday.LocaleKoKR,
}

// getMondayLocale maps a locale string such as "de-DE" or "en_gb" to a
// monday.Locale, falling back to the language alone and then to en_US.
func getMondayLocale(locale string) monday.Locale {
	locale = strings.ToLower(strings.ReplaceAll(locale, "-", "_"))
	if loc, ok := mondayLocales[locale]; ok {
		return loc
	}
	if lang, _, found := strings.Cut(locale, "_"); found {
		if loc, ok := mondayLocales[lang]; ok {
			return loc
		}
	}
	return monday.LocaleEnUS
}

func isMonthFirstLocale(locale string) bool {
	return getMondayLocale(locale) == monday.LocaleEnUS
}

// dateStyleFormat returns the layout for a named style.
func dateStyleFormat(style string, locale monday.Locale) (string, bool) {
	us := locale == monday.LocaleEnUS
	switch style {
	case "short":
		switch {
		case us:
			return "1/2/06", true
		case locale == monday.LocaleDeDE:
			return "02.01.06", true
		default:
			return "02/01/06", true
		}
	case "medium":
		if us {
			return "Jan 2, 2006", true
		}
		return "2 Jan 2006", true
	case "long":
		if us {
			return "January 2, 2006", true
		}
		return "2 January 2006", true
	case "full":
		if us {
			return "Monday, January 2, 2006", true
		}
		return "Monday, 2 January 2006", true
	}
	return "", false
}
