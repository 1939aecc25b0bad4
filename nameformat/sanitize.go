package nameformat

import "strings"

// Options tune how values taken from a manifest are cleaned before they are
// used in a file name.
type Options struct {
	ForbidChars    string // replaced by '_'
	AllowUppercase bool   // when false, ASCII letters are lowered
	AllowUTF8      bool   // when false, each non ASCII character becomes a single '_'
}

// Sanitize cleans a value according to the options. '/' and control
// characters are always replaced by '_'.
func Sanitize(s string, o Options) string {
	b := strings.Builder{}
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c >= 0x80:
			if o.AllowUTF8 {
				b.WriteByte(c)
				i++
				continue
			}
			b.WriteByte('_')
			i++
			for i < len(s) && s[i]&0xc0 == 0x80 {
				i++
			}
			continue
		case c == '/' || c < 0x20 || c == 0x7f:
			b.WriteByte('_')
		case c >= 'A' && c <= 'Z' && !o.AllowUppercase:
			b.WriteByte(c + 'a' - 'A')
		case strings.IndexByte(o.ForbidChars, c) >= 0:
			b.WriteByte('_')
		default:
			b.WriteByte(c)
		}
		i++
	}
	return b.String()
}
