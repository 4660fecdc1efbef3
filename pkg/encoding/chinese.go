// Package encoding provides text encoding utilities for model files exported
// by Chinese-locale modelling tools.
package encoding

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ToUTF8 returns data as UTF-8. Valid UTF-8 is returned unchanged (minus a
// byte order mark); anything else is decoded as GB18030, the superset of
// GBK that legacy exporters write.
func ToUTF8(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	result, _, err := transform.Bytes(simplifiedchinese.GB18030.NewDecoder(), data)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GB18030ToUTF8 converts a GB18030 encoded string to UTF-8.
// Returns the original string if conversion fails.
func GB18030ToUTF8(s string) string {
	result, _, err := transform.String(simplifiedchinese.GB18030.NewDecoder(), s)
	if err != nil {
		return s
	}
	return result
}

// UTF8ToGB18030 converts a UTF-8 string to GB18030 encoded bytes.
// Returns the original bytes if conversion fails.
func UTF8ToGB18030(s string) []byte {
	result, _, err := transform.Bytes(simplifiedchinese.GB18030.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// CleanName strips the padding exporters leave on node names: trailing
// null bytes and surrounding whitespace. Names that are not valid UTF-8
// are decoded as GB18030.
func CleanName(name string) string {
	if i := strings.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	if !utf8.ValidString(name) {
		name = GB18030ToUTF8(name)
	}
	return strings.TrimSpace(name)
}
