package model

import (
	"bytes"
	"fmt"
	"strconv"
)

// Flag is a boolean that also decodes the 0/1 encodings the backend uses
// for tinyint columns (is_read, is_starred, is_published).
type Flag bool

// UnmarshalJSON accepts true/false, 0/1, "0"/"1", "true"/"false" and null.
func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = false
		return nil
	}
	s := string(b)
	if uq, err := strconv.Unquote(s); err == nil {
		s = uq
	}
	switch s {
	case "true", "1":
		*f = true
	case "false", "0", "":
		*f = false
	default:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("model: invalid flag %s", b)
		}
		*f = n != 0
	}
	return nil
}

// Int returns the 0/1 form used by the backend.
func (f Flag) Int() int {
	if f {
		return 1
	}
	return 0
}
