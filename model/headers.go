package model

import (
	"bytes"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// Headers is the subset of message headers the archiver cares about.
type Headers struct {
	MessageID string
	Subject   string
	Date      time.Time
}

// ReadHeaders parses the header block of a raw message. Decoding is
// best-effort: a malformed message yields the zero Headers plus the
// parse error, and callers degrade gracefully.
func ReadHeaders(raw []byte) (Headers, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && mr == nil {
		return Headers{}, err
	}

	var h Headers
	h.MessageID, _ = mr.Header.MessageID()
	h.Subject, _ = mr.Header.Subject()
	h.Date, _ = mr.Header.Date()
	return h, err
}
