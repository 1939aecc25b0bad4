package amz

import (
	"bytes"
	"crypto/cipher"
	"crypto/des"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/wlevine/clamz/mylog"
)

type recorder struct {
	lines []string
}

func (r *recorder) Printf(f string, a ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(f, a...))
}

// obfuscate builds an encoded manifest the way the store delivers them:
// zero padded, DES-CBC encrypted, base64 encoded on 76 columns.
func obfuscate(t *testing.T, plain []byte, extra ...byte) []byte {
	t.Helper()
	padded := append([]byte(nil), plain...)
	for len(padded)%des.BlockSize != 0 {
		padded = append(padded, 0)
	}
	block, err := des.NewCipher(legacyKey[:])
	if err != nil {
		t.Fatal(err)
	}
	enc := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, legacyIV[:]).CryptBlocks(enc, padded)
	enc = append(enc, extra...)

	s := base64.StdEncoding.EncodeToString(enc)
	b := &bytes.Buffer{}
	for len(s) > 76 {
		b.WriteString(s[:76])
		b.WriteString("\r\n")
		s = s[76:]
	}
	b.WriteString(s)
	b.WriteString("\n")
	return b.Bytes()
}

func testLogger(t *testing.T) (*mylog.MyLog, *recorder) {
	t.Helper()
	r := &recorder{}
	l, err := mylog.NewLog("DEBUG", r, nil)
	if err != nil {
		t.Fatal(err)
	}
	return l, r
}

func TestDecodePlainIsIdentity(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"simple", `<?xml version="1.0"?><playlist/>`},
		{"leading spaces", " \r\n\t<playlist></playlist>\n"},
		{"byte order mark", "\xef\xbb\xbf<playlist/>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := testLogger(t)
			got, err := Decode([]byte(tt.data), "plain.amz", l)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.data {
				t.Errorf("expected %q, got %q", tt.data, got)
			}
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	plains := []string{
		`<?xml version="1.0" encoding="UTF-8"?>` + "\n" + `<playlist><title>Album</title></playlist>`,
		"<playlist/>\n",
		"<p>12345</p>",
		"<p>" + strings.Repeat("x", 1000) + "</p>\r\n",
	}
	for i, plain := range plains {
		t.Run(fmt.Sprintf("fixture %d", i), func(t *testing.T) {
			l, rec := testLogger(t)
			got, err := Decode(obfuscate(t, []byte(plain)), "fixture.amz", l)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != plain {
				t.Errorf("expected %q, got %q", plain, got)
			}
			if len(rec.lines) != 0 {
				t.Errorf("unexpected warnings: %v", rec.lines)
			}
		})
	}
}

func TestDecodeTruncatesToBlockSize(t *testing.T) {
	plain := "<playlist>ABCDEF</playlist>....."
	if len(plain)%8 != 0 {
		t.Fatalf("fixture must be block aligned, got %d bytes", len(plain))
	}
	l, rec := testLogger(t)
	got, err := Decode(obfuscate(t, []byte(plain), 1, 2, 3), "odd.amz", l)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != plain {
		t.Errorf("expected %q, got %q", plain, got)
	}
	if len(rec.lines) != 1 || !strings.Contains(rec.lines[0], "length = 3 mod 8") {
		t.Errorf("expected one truncation warning, got %v", rec.lines)
	}
}

func TestDecodeShortInput(t *testing.T) {
	l, _ := testLogger(t)
	got, err := Decode([]byte("QUJD"), "short.amz", l)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected nothing from a sub-block input, got %q", got)
	}
}

func TestDecodeInvalidBase64(t *testing.T) {
	l, _ := testLogger(t)
	_, err := Decode([]byte("QUJD!REVG"), "bad.amz", l)
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
	var de *DecodeError
	if !errors.As(err, &de) || de.File != "bad.amz" {
		t.Errorf("expected a DecodeError naming the file, got %#v", err)
	}
}

func TestDecodeBase64Tolerance(t *testing.T) {
	got, err := decodeBase64([]byte("QU JD\nRE\tVG=="))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ABCDEF" {
		t.Errorf("expected ABCDEF, got %q", got)
	}
	got, err = decodeBase64([]byte("QUI"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "AB" {
		t.Errorf("expected AB from an unpadded group, got %q", got)
	}
}

func TestTrimPadding(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<a/>\x00\x00\x00", "<a/>"},
		{"<a/>\x08\x08", "<a/>"},
		{"<a/>\n\x00", "<a/>\n"},
		{"<a/>\r\x08", "<a/>\r"},
		{"<a/>\t\x01", "<a/>"},
		{"\x00\x00", ""},
		{"", ""},
		{"<a/>", "<a/>"},
	}
	for _, tt := range tests {
		if got := string(trimPadding([]byte(tt.in))); got != tt.want {
			t.Errorf("trimPadding(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
