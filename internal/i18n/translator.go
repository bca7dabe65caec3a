package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"

	"studio/internal/domain"
)

// Fallback is the language used when a key is missing in the requested one.
const Fallback = "en"

// Translator resolves catalog keys with placeholder substitution.
type Translator struct {
	catalogs map[string]map[string]string
	matcher  language.Matcher
	tags     []string
}

// NewTranslator builds a translator over the bundled catalogs.
func NewTranslator() *Translator {
	return &Translator{
		catalogs: catalogs,
		matcher:  language.NewMatcher([]language.Tag{language.English, language.German}),
		tags:     []string{"en", "de"},
	}
}

// T looks the key up in lang, then in English, then falls back to the key
// itself. {name} placeholders are replaced from args.
func (t *Translator) T(lang, key string, args map[string]string) string {
	text, ok := t.catalogs[normalize(lang)][key]
	if !ok {
		text, ok = t.catalogs[Fallback][key]
	}
	if !ok {
		text = key
	}
	for name, value := range args {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return text
}

// Match picks the best supported language for an Accept-Language header.
func (t *Translator) Match(accept string) string {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	return t.tags[idx]
}

// Supports reports whether lang has a catalog.
func (t *Translator) Supports(lang string) bool {
	_, ok := t.catalogs[strings.ToLower(strings.TrimSpace(lang))]
	return ok
}

func normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}

type languageKey struct{}

// WithLanguage stores the request language in ctx.
func WithLanguage(ctx context.Context, lang string) context.Context {
	if lang == "" {
		return ctx
	}
	return context.WithValue(ctx, languageKey{}, lang)
}

// LanguageFromContext returns the request language, if any.
func LanguageFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(languageKey{}).(string); ok {
		return v
	}
	return ""
}

// LanguageSource provides the workspace language setting.
type LanguageSource interface {
	Language(ctx context.Context) (domain.Language, error)
}

// Localizer renders catalog keys in the language of the request, falling back
// to the workspace setting for background work such as polling.
type Localizer struct {
	tr  *Translator
	src LanguageSource
}

// NewLocalizer combines a translator with a language source. src may be nil.
func NewLocalizer(tr *Translator, src LanguageSource) *Localizer {
	return &Localizer{tr: tr, src: src}
}

// Text renders key for the language in effect for ctx.
func (l *Localizer) Text(ctx context.Context, key string, args map[string]string) string {
	return l.tr.T(l.Language(ctx), key, args)
}

// Language resolves the language in effect for ctx.
func (l *Localizer) Language(ctx context.Context) string {
	if lang := LanguageFromContext(ctx); lang != "" {
		return lang
	}
	if l.src != nil {
		if lang, err := l.src.Language(ctx); err == nil && lang != "" {
			return string(lang)
		}
	}
	return Fallback
}
