package protocol

import (
	"bytes"
	"testing"

	"pgregory.net/rapid"
)

// TestStringFrameRoundTrip tests that any UTF-8 payload within the size
// bound survives a write/read cycle unchanged.
func TestStringFrameRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.StringN(-1, -1, MaxPayloadSize).Draw(t, "payload")

		var buf bytes.Buffer
		if err := WriteString(&buf, payload); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		got, err := ReadString(&buf)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if got != payload {
			t.Fatalf("payload mismatch: got %q, want %q", got, payload)
		}
		if buf.Len() != 0 {
			t.Fatalf("%d bytes left unread", buf.Len())
		}
	})
}

// TestStringFrameStream tests that consecutive frames on one stream
// decode in order with correct boundaries.
func TestStringFrameStream(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(1, 20).Draw(t, "count")
		payloads := make([]string, count)

		var buf bytes.Buffer
		for i := range payloads {
			payloads[i] = rapid.StringN(-1, -1, 256).Draw(t, "payload")
			if err := WriteString(&buf, payloads[i]); err != nil {
				t.Fatalf("write %d failed: %v", i, err)
			}
		}

		for i, want := range payloads {
			got, err := ReadString(&buf)
			if err != nil {
				t.Fatalf("read %d failed: %v", i, err)
			}
			if got != want {
				t.Fatalf("frame %d mismatch: got %q, want %q", i, got, want)
			}
		}
	})
}

// TestRequestEncodeParseRoundTrip tests that arbitrary request field
// combinations survive the JSON envelope.
func TestRequestEncodeParseRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kinds := []string{
			RequestAccess, RequestLogout, RequestInteraction,
			RequestNotificationChannel, RequestChatRoom,
		}
		original := &Request{
			RequestType:      rapid.SampledFrom(kinds).Draw(t, "kind"),
			NicknameSender:   rapid.StringMatching(`[a-zA-Z0-9_]{1,16}`).Draw(t, "sender"),
			Password:         rapid.String().Draw(t, "password"),
			Language:         rapid.SampledFrom([]string{"", "it", "en", "fr"}).Draw(t, "language"),
			NicknameReceiver: rapid.String().Draw(t, "receiver"),
			Text:             rapid.String().Draw(t, "text"),
			ChatRoomName:     rapid.String().Draw(t, "room"),
		}

		raw, err := original.Encode()
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}

		parsed, err := ParseRequest(raw)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if *parsed != *original {
			t.Fatalf("round-trip mismatch: got %+v, want %+v", parsed, original)
		}
	})
}
