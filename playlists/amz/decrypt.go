package amz

import (
	"crypto/cipher"
	"crypto/des"
	"errors"
	"fmt"

	"github.com/wlevine/clamz/mylog"
)

// The manifest obfuscation key and IV. They are public constants of a legacy
// format, not secrets: anybody holding a manifest can decode it.
var (
	legacyKey = [des.BlockSize]byte{0x29, 0xAB, 0x9D, 0x18, 0xB2, 0x44, 0x9E, 0x31}
	legacyIV  = [des.BlockSize]byte{0x5E, 0x72, 0xD7, 0x9A, 0x11, 0xB3, 0x4F, 0xEE}
)

var (
	ErrInvalidEncoding = errors.New("invalid base64 data")
	ErrCryptoFailure   = errors.New("unable to decrypt")
)

// DecodeError reports a manifest that can't be turned into markup.
type DecodeError struct {
	File string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s in AMZ file '%s'", e.Err, e.File)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode returns the markup held by a manifest. Plain manifests are returned
// as is, encoded ones are base64 decoded and decrypted. The name is used in
// messages only.
func Decode(data []byte, name string, log *mylog.MyLog) ([]byte, error) {
	i := 0
	for i < len(data) && (data[i] <= ' ' || data[i] > '~') {
		i++
	}
	if i < len(data) && data[i] == '<' {
		log.Trace().Printf("[DECODER] '%s' is plain XML", name)
		return append([]byte(nil), data...), nil
	}

	packed, err := decodeBase64(data)
	if err != nil {
		return nil, &DecodeError{File: name, Err: err}
	}

	if excess := len(packed) % des.BlockSize; excess != 0 {
		log.Warning().Printf("[DECODER] length = %d mod %d, discarding excess bytes of '%s'", excess, des.BlockSize, name)
		packed = packed[:len(packed)-excess]
	}

	block, err := des.NewCipher(legacyKey[:])
	if err != nil {
		return nil, &DecodeError{File: name, Err: fmt.Errorf("%w: %s", ErrCryptoFailure, err)}
	}
	plain := make([]byte, len(packed))
	cipher.NewCBCDecrypter(block, legacyIV[:]).CryptBlocks(plain, packed)

	log.Trace().Printf("[DECODER] '%s' decrypted, %d bytes", name, len(plain))
	return trimPadding(plain), nil
}

// trimPadding drops the trailing bytes that are neither printable nor a line
// break. Decrypted manifests are padded with 0x00 or 0x08 bytes.
func trimPadding(b []byte) []byte {
	i := len(b)
	for i > 0 {
		c := b[i-1]
		if c >= ' ' || c == '\n' || c == '\r' {
			break
		}
		i--
	}
	return b[:i]
}

// decodeBase64 decodes the standard alphabet, ignoring '=' and any byte up
// to the space character.
func decodeBase64(in []byte) ([]byte, error) {
	out := make([]byte, 0, len(in)*3/4+3)
	var bits uint32
	n := 0
	for _, c := range in {
		var v uint32
		switch {
		case c >= 'A' && c <= 'Z':
			v = uint32(c - 'A')
		case c >= 'a' && c <= 'z':
			v = uint32(c-'a') + 26
		case c >= '0' && c <= '9':
			v = uint32(c-'0') + 52
		case c == '+':
			v = 62
		case c == '/':
			v = 63
		case c <= ' ' || c == '=':
			continue
		default:
			return nil, ErrInvalidEncoding
		}

		bits = bits<<6 | v
		n++
		switch n {
		case 2:
			out = append(out, byte(bits>>4))
		case 3:
			out = append(out, byte(bits>>2))
		case 4:
			out = append(out, byte(bits))
			bits, n = 0, 0
		}
	}
	return out, nil
}
