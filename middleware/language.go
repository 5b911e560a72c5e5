package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const (
	LangParam      = "lang"
	LangCookieName = "tour_lang"
	KeyLang        = "Lang"
)

// LanguageMiddleware picks the visitor's UI language from the lang query
// parameter, then the language cookie, then Accept-Language, then
// defaultLang. Only supported languages are chosen; a lang parameter is
// remembered in the cookie.
func LanguageMiddleware(defaultLang string, supported ...string) gin.HandlerFunc {
	tags := make([]language.Tag, 0, len(supported)+1)
	tags = append(tags, language.Make(defaultLang))
	for _, s := range supported {
		tags = append(tags, language.Make(s))
	}
	matcher := language.NewMatcher(tags)

	match := func(candidates ...language.Tag) (string, bool) {
		if len(candidates) == 0 {
			return "", false
		}
		_, index, confidence := matcher.Match(candidates...)
		if confidence == language.No {
			return "", false
		}
		base, _ := tags[index].Base()
		return base.String(), true
	}
	parse := func(value string) (string, bool) {
		tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(value), "_", "-"))
		if err != nil {
			return "", false
		}
		return match(tag)
	}
	fallback, _ := language.Make(defaultLang).Base()

	return func(c *gin.Context) {
		lang := fallback.String()

		if v := c.Query(LangParam); v != "" {
			if l, ok := parse(v); ok {
				lang = l
				http.SetCookie(c.Writer, &http.Cookie{
					Name:     LangCookieName,
					Value:    l,
					Path:     "/",
					MaxAge:   int((365 * 24 * time.Hour).Seconds()),
					SameSite: http.SameSiteLaxMode,
				})
				c.Set(KeyLang, lang)
				c.Next()
				return
			}
		}

		if cookie, err := c.Cookie(LangCookieName); err == nil {
			if l, ok := parse(cookie); ok {
				c.Set(KeyLang, l)
				c.Next()
				return
			}
		}

		if accept := c.GetHeader("Accept-Language"); accept != "" {
			if prefs, _, err := language.ParseAcceptLanguage(accept); err == nil {
				if l, ok := match(prefs...); ok {
					lang = l
				}
			}
		}

		c.Set(KeyLang, lang)
		c.Next()
	}
}

// Lang returns the language chosen by LanguageMiddleware.
func Lang(c *gin.Context) string {
	if v, ok := c.Get(KeyLang); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
