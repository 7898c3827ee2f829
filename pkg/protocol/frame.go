package protocol

import (
	"encoding/binary"
	"errors"
	"io"
	"unicode/utf8"
)

const (
	// MaxPayloadSize is the maximum encoded payload length (64 KB - 1).
	// The wire contract prefixes every message with a big-endian uint16
	// byte length, so this bound is structural, not a tunable.
	MaxPayloadSize = 65535
)

var (
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size (65535 bytes)")
	ErrInvalidPayload  = errors.New("payload is not valid UTF-8")
)

// WriteString writes one length-prefixed UTF-8 message to the writer.
// Format: [Length (2 bytes, big-endian)][Payload (N bytes, UTF-8)]
func WriteString(w io.Writer, s string) error {
	if len(s) > MaxPayloadSize {
		return ErrPayloadTooLarge
	}

	var prefix [2]byte
	binary.BigEndian.PutUint16(prefix[:], uint16(len(s)))

	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}

	// Flush if the writer supports it (e.g., *bufio.Writer)
	type flusher interface {
		Flush() error
	}
	if fl, ok := w.(flusher); ok {
		return fl.Flush()
	}

	return nil
}

// ReadString reads one length-prefixed UTF-8 message from the reader.
func ReadString(r io.Reader) (string, error) {
	var prefix [2]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return "", err
	}

	length := binary.BigEndian.Uint16(prefix[:])
	if length == 0 {
		return "", nil
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return "", err
	}

	if !utf8.Valid(payload) {
		return "", ErrInvalidPayload
	}

	return string(payload), nil
}
