package core

// decode.go turns uploaded bytes into UTF-8 text.
//
// Rosters saved from Excel on Windows arrive either with a UTF-8 BOM or in
// Windows-1252. Anything that is not valid UTF-8 after the BOM is stripped is
// decoded as Windows-1252, which maps every byte, so decoding never fails.

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode strips a UTF-8 byte order mark and converts Windows-1252 input to UTF-8.
func Decode(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return bytes.ToValidUTF8(data, []byte("�"))
	}
	return out
}
