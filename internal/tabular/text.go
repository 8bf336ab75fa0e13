package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/cleared-dev/feerecon/internal/model"
)

const (
	fieldDelimiter = ';'
	detectSample   = 10000
)

// ErrDecode means the bytes are not valid in the attempted character set.
var ErrDecode = errors.New("decode error")

type textDecoder struct {
	name   string
	decode func(raw []byte) (string, string, error)
}

// textDecoders are tried in order and the first that decodes wins. The
// order matters: moving detection ahead of the fixed charsets changes
// which files silently decode to the wrong characters.
var textDecoders = []textDecoder{
	{name: "utf-8", decode: decodeUTF8},
	{name: "windows-1251", decode: decodeCharset("windows-1251", charmap.Windows1251)},
	{name: "detected", decode: decodeDetected},
}

func readText(path string) (*model.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text, charset, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = fieldDelimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s text: %w", charset, err)
	}

	tbl, err := buildTable(records)
	if err != nil {
		return nil, err
	}
	tbl.Encoding = charset
	return tbl, nil
}

// decodeText runs the decoder chain and returns the text with the name of
// the charset that produced it.
func decodeText(raw []byte) (string, string, error) {
	var errs []error
	for _, d := range textDecoders {
		text, charset, err := d.decode(raw)
		if err == nil {
			return text, charset, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", d.name, err))
	}
	return "", "", fmt.Errorf("no charset could decode the file: %w", errors.Join(errs...))
}

func decodeUTF8(raw []byte) (string, string, error) {
	if !utf8.Valid(raw) {
		return "", "", ErrDecode
	}
	return strings.TrimPrefix(string(raw), "\ufeff"), "utf-8", nil
}

func decodeCharset(name string, enc encoding.Encoding) func([]byte) (string, string, error) {
	return func(raw []byte) (string, string, error) {
		out, err := enc.NewDecoder().Bytes(raw)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
		if unmapped(out) {
			return "", "", ErrDecode
		}
		return string(out), name, nil
	}
}

// unmapped reports whether decoded text holds a byte the charset does not
// define. Those come back as U+FFFD or as a C1 control code point.
func unmapped(text []byte) bool {
	for len(text) > 0 {
		r, size := utf8.DecodeRune(text)
		if r == utf8.RuneError || (r >= 0x80 && r <= 0x9f) {
			return true
		}
		text = text[size:]
	}
	return false
}

// decodeDetected guesses the charset from byte frequencies of the head of
// the file and decodes the whole file with it.
func decodeDetected(raw []byte) (string, string, error) {
	sample := raw
	if len(sample) > detectSample {
		sample = sample[:detectSample]
	}

	res, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil {
		return "", "", fmt.Errorf("detecting charset: %w", err)
	}

	enc, err := lookupEncoding(res.Charset)
	if err != nil {
		return "", "", err
	}
	return decodeCharset(strings.ToLower(res.Charset), enc)(raw)
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	if enc, err := htmlindex.Get(name); err == nil {
		return enc, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unknown charset %q", name)
	}
	return enc, nil
}
