package analyze

import (
	"bytes"
	"net/mail"
)

// Headers is a best-effort view of one record's header block. Lookups are
// case-insensitive and first-occurrence-wins; a record whose header block
// cannot be parsed behaves as if every header were absent.
type Headers struct {
	header mail.Header
	ok     bool
}

// parseHeaders strips the leading "From " separator line from a raw record
// and parses the remaining header block. Parse failures are not errors here,
// they yield an all-absent view.
func parseHeaders(raw []byte) Headers {
	msg := raw
	if i := bytes.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[i+1:]
	} else {
		// A record that is nothing but its separator line has no headers.
		msg = nil
	}

	parsed, err := mail.ReadMessage(bytes.NewReader(msg))
	if err != nil {
		return Headers{}
	}
	return Headers{header: parsed.Header, ok: true}
}

// Get returns the first value of the named header and whether it is present.
func (h Headers) Get(name string) (string, bool) {
	if !h.ok {
		return "", false
	}
	value := h.header.Get(name)
	if value == "" {
		return "", false
	}
	return value, true
}
