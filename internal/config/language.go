package config

import (
	"fmt"
	"strings"

	"github.com/roach88/modloader/internal/mod"
)

var languages = []struct {
	code string
	name string
}{
	{"en", "English"},
	{"de", "German"},
	{"fr", "French"},
	{"pl", "Polish"},
	{"ru", "Russian"},
}

// ParseLanguage maps a language code or name to the directory name used
// under localization/. Matching ignores case.
func ParseLanguage(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, l := range languages {
		if strings.EqualFold(s, l.code) || strings.EqualFold(s, l.name) {
			return l.name, nil
		}
	}
	return "", mod.ConfigError("unsupported language", fmt.Errorf("%q", s))
}

// Languages lists the supported language names.
func Languages() []string {
	out := make([]string, len(languages))
	for i, l := range languages {
		out[i] = l.name
	}
	return out
}
