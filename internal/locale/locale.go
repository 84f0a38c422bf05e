package locale

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

type contextKey string

const localeKeyForContext contextKey = "locale"

var (
	English   = language.English
	Mongolian = language.Mongolian

	supported = []language.Tag{English, Mongolian}
	matcher   = language.NewMatcher(supported)
)

// Messages holds the display strings of the waitlist form.
type Messages struct {
	Success      string
	InvalidEmail string
	ErrorLater   string
	ErrorInline  string
}

var catalog = map[language.Tag]Messages{
	English: {
		Success:      "Thanks! You're on the list. We'll email you when Mandarin launches.",
		InvalidEmail: "Please enter a valid email address.",
		ErrorLater:   "Something went wrong. Please try again later.",
		ErrorInline:  "Something went wrong. Please try again.",
	},
	Mongolian: {
		Success:      "Баярлалаа! Таныг жагсаалтад бүртгэлээ. Mandarin нээгдэхэд бид имэйл илгээнэ.",
		InvalidEmail: "Хүчинтэй имэйл хаяг оруулна уу.",
		ErrorLater:   "Алдаа гарлаа. Та түр хүлээгээд дахин оролдоно уу.",
		ErrorInline:  "Алдаа гарлаа. Дахин оролдоно уу.",
	},
}

// MessagesFor returns the catalog for tag, falling back to English.
func MessagesFor(tag language.Tag) Messages {
	if m, ok := catalog[Match(tag)]; ok {
		return m
	}
	return catalog[English]
}

// Next is the language switcher: en -> mn -> en.
func Next(tag language.Tag) language.Tag {
	if Match(tag) == English {
		return Mongolian
	}
	return English
}

// Match maps tag onto one of the supported locales, English when nothing fits.
func Match(tag language.Tag) language.Tag {
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return English
	}
	return supported[idx]
}

// Resolve picks the locale from, in order, an explicit locale value, a
// ?lang= query value and an Accept-Language header. Unsupported or
// unparseable values fall through to the next source.
func Resolve(explicit, query, acceptLanguage string) language.Tag {
	for _, raw := range []string{explicit, query} {
		if tag, ok := parseSupported(raw); ok {
			return tag
		}
	}

	if strings.TrimSpace(acceptLanguage) != "" {
		tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
		if err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				return supported[idx]
			}
		}
	}

	return English
}

func parseSupported(raw string) (language.Tag, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return language.Und, false
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.Und, false
	}
	return supported[idx], true
}

func WithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, localeKeyForContext, tag)
}

func FromContext(ctx context.Context) language.Tag {
	if ctx != nil {
		if tag, ok := ctx.Value(localeKeyForContext).(language.Tag); ok {
			return tag
		}
	}
	return English
}
