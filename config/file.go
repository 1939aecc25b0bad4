package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/alecthomas/participle"
	"github.com/alecthomas/participle/lexer"

	"github.com/wlevine/clamz/mylog"
)

// DefaultFile is written when the user has no configuration file yet.
const DefaultFile = `## Clamz configuration file

## Default format for output filenames.  This may contain any of
## the following variables:
##
##  ${title} ${creator} ${album} ${tracknum} ${album_artist}
##  ${genre} ${discnum} ${suffix} ${asin} ${album_asin}
##
## The name format may also contain slashes, if you'd like to
## categorize your files in subdirectories.
NameFormat       "${tracknum} - ${title}.${suffix}"

## The base directory in which to store downloaded music.
## If unset, it defaults to the current directory.
# OutputDir       "/home/me/Music"

## Set to True to allow uppercase in filenames.
## False to convert to lowercase.
AllowUppercase   True

## Set to True to output UTF-8 filenames, False to output ASCII only,
## UseLocale to check the system locale setting.
AllowUTF8        UseLocale

## The set of ASCII characters which are disallowed.  (Control
## characters and slashes are always disallowed.)
ForbidChars      "!\"$*:;<>?\\` + "`" + `|~"

`

// The configuration file is a list of lines "Keyword value".
// A value is a word, where double quoted parts may contain blanks and
// backslash escapes. A # starts a comment, even within quotes.
type file struct {
	Lines []*line `parser:"{ @@ | EOL }"`
}

type line struct {
	Pos     lexer.Position
	Keyword string   `parser:"@Value"`
	Values  []string `parser:"{ @Value } EOL"`
}

const fileLexer = `(#[^\n]*)|([ \t\r\f]+)|(?P<EOL>\n)|(?P<Value>(?:[^\s"#]|"(?:[^"\\\n#]|\\[^\n#])*"?)+)`

var fileParser = participle.MustBuild(
	&file{},
	participle.Lexer(lexer.Must(lexer.Regexp(fileLexer))),
	participle.UseLookahead(2),
)

// unquote removes the double quotes of a value, and the backslashes
// escaping characters within them.
func unquote(v string) string {
	var b strings.Builder
	quoted := false
	for i := 0; i < len(v); i++ {
		switch c := v[i]; {
		case c == '"':
			quoted = !quoted
		case c == '\\' && quoted && i+1 < len(v):
			i++
			b.WriteByte(v[i])
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// LoadFile reads the configuration file name. The default configuration is
// written there when the file doesn't exist.
func (c *Config) LoadFile(name string, log *mylog.MyLog) error {
	b, err := ioutil.ReadFile(name)
	if os.IsNotExist(err) {
		log.Info().Printf("[CONFIG] Creating '%s'", name)
		b = []byte(DefaultFile)
		err = ioutil.WriteFile(name, b, 0666)
		if err != nil {
			return fmt.Errorf("unable to open configuration file '%s': %w", name, err)
		}
	}
	if err != nil {
		return fmt.Errorf("unable to open configuration file '%s': %w", name, err)
	}
	return c.Parse(b, name, log)
}

// Parse applies the settings found in a configuration text.
func (c *Config) Parse(b []byte, name string, log *mylog.MyLog) error {
	f := &file{}
	// The last line may lack its new line.
	text := make([]byte, 0, len(b)+1)
	text = append(append(text, b...), '\n')
	if err := fileParser.ParseBytes(text, f); err != nil {
		return fmt.Errorf("can't read '%s': %w", name, err)
	}

	for _, l := range f.Lines {
		v := ""
		if len(l.Values) > 0 {
			v = unquote(l.Values[0])
		}
		switch strings.ToLower(unquote(l.Keyword)) {
		case "nameformat":
			c.NameFormat = v
		case "outputdir":
			c.OutputDir = v
		case "forbidchars":
			c.ForbidChars = ""
			c.ForbidMore(v)
		case "allowuppercase":
			c.AllowUppercase = ParseTristate(v) == On
		case "allowutf8":
			c.AllowUTF8 = ParseTristate(v)
		default:
			log.Warning().Printf("[CONFIG] %s:%d: unknown setting '%s'", name, l.Pos.Line, l.Keyword)
		}
	}
	return nil
}
