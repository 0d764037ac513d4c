package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Message is a single mail message fetched from a source, ready to be
// archived. Sources own the attributes; the archiver treats them as
// read-only.
type Message struct {
	ID         string
	ReceivedAt time.Time
	Subject    string
	Raw        []byte
	Hash       string
}

// HashRaw returns the hex sha256 of a raw message, used for forensic
// correlation between runs in debug logs.
func HashRaw(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
