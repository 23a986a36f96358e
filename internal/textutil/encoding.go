// Package textutil provides text manipulation and encoding utilities.
package textutil

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// ErrUnknownEncoding is returned by LookupEncoding for names it cannot resolve.
var ErrUnknownEncoding = errors.New("unknown encoding")

// DefaultANSIEncoding is the legacy encoding assumed for pre-Unicode strings.
const DefaultANSIEncoding = "windows-1252"

// LookupEncoding resolves an IANA / WHATWG charset name. Common mail aliases
// are matched first, then the WHATWG index.
func LookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownEncoding)
	}
	if enc := encodingByAlias(name); enc != nil {
		return enc, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

func encodingByAlias(name string) encoding.Encoding {
	switch strings.ToLower(name) {
	case "utf-8", "utf8":
		return unicode.UTF8
	case "windows-1252", "cp1252":
		return charmap.Windows1252
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15
	case "iso-8859-2", "latin2":
		return charmap.ISO8859_2
	case "shift_jis", "shift-jis", "sjis":
		return japanese.ShiftJIS
	case "euc-jp", "eucjp":
		return japanese.EUCJP
	case "iso-2022-jp":
		return japanese.ISO2022JP
	case "euc-kr", "euckr":
		return korean.EUCKR
	case "gb2312", "gbk":
		return simplifiedchinese.GBK
	case "gb18030":
		return simplifiedchinese.GB18030
	case "big5", "big-5":
		return traditionalchinese.Big5
	case "koi8-r":
		return charmap.KOI8R
	case "koi8-u":
		return charmap.KOI8U
	default:
		return nil
	}
}

// DecodeLegacy converts s from the legacy encoding enc to UTF-8. Strings that
// are already valid UTF-8 are returned unchanged, as are strings enc cannot
// decode.
func DecodeLegacy(s string, enc encoding.Encoding) string {
	if enc == nil || utf8.ValidString(s) {
		return s
	}
	decoded, err := enc.NewDecoder().String(s)
	if err != nil || !utf8.ValidString(decoded) {
		return EnsureUTF8(s)
	}
	return decoded
}

// Encode converts UTF-8 text to enc. Characters enc cannot represent are
// replaced rather than failing the whole conversion.
func Encode(s string, enc encoding.Encoding) ([]byte, error) {
	if enc == nil || enc == unicode.UTF8 {
		return []byte(s), nil
	}
	out, err := encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode text: %w", err)
	}
	return out, nil
}

// EnsureUTF8 ensures a string is valid UTF-8.
// If already valid UTF-8, returns as-is.
// Otherwise attempts charset detection and conversion, falling back to
// replacing invalid bytes with the replacement character.
func EnsureUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	data := []byte(s)

	// Detection is unreliable on short samples, so accept lower confidence there.
	minConfidence := 30
	if len(data) > 50 {
		minConfidence = 50
	}

	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err == nil && result.Confidence >= minConfidence {
		if enc := encodingByAlias(result.Charset); enc != nil {
			decoded, err := enc.NewDecoder().Bytes(data)
			if err == nil && utf8.Valid(decoded) {
				return string(decoded)
			}
		}
	}

	// Windows-1252 first: archives written by Western Outlook installs.
	encodings := []encoding.Encoding{
		charmap.Windows1252,
		charmap.ISO8859_1,
		charmap.ISO8859_15,
		japanese.ShiftJIS,
		japanese.EUCJP,
		korean.EUCKR,
		simplifiedchinese.GBK,
		traditionalchinese.Big5,
	}

	for _, enc := range encodings {
		decoded, err := enc.NewDecoder().Bytes(data)
		if err == nil && utf8.Valid(decoded) {
			return string(decoded)
		}
	}

	return SanitizeUTF8(s)
}

// SanitizeUTF8 replaces invalid UTF-8 bytes with replacement character.
func SanitizeUTF8(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune('�')
			i++
		} else {
			sb.WriteRune(r)
			i += size
		}
	}
	return sb.String()
}
