package config

import (
	"os"
	"strings"
)

// LocaleIsUTF8 tells if the character set of the user's locale is UTF-8.
// The first non empty variable among LC_ALL, LC_CTYPE and LANG decides.
func LocaleIsUTF8() bool {
	for _, k := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if v := os.Getenv(k); v != "" {
			return isUTF8Locale(v)
		}
	}
	return false
}

// isUTF8Locale reads the codeset of a locale name like fr_FR.UTF-8@euro.
func isUTF8Locale(l string) bool {
	i := strings.IndexByte(l, '.')
	if i < 0 {
		return false
	}
	cs := l[i+1:]
	if j := strings.IndexByte(cs, '@'); j >= 0 {
		cs = cs[:j]
	}
	return strings.EqualFold(cs, "UTF-8") || strings.EqualFold(cs, "UTF8")
}
