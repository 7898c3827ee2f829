// Package translate provides best-effort text translation between user
// languages. Callers treat every failure as "use the original text";
// nothing here is on a correctness path.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/text/language"
)

// DefaultEndpoint is the public MyMemory translation API.
const DefaultEndpoint = "https://api.mymemory.translated.net"

var ErrUnknownLanguage = errors.New("unknown language code")

// Translator converts text from one two-letter language code to another.
type Translator interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// Noop returns the input unchanged. Used when translation is disabled
// and as the safe default in tests.
type Noop struct{}

func (Noop) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}

// ValidLanguage reports whether code is a well-formed two-letter
// ISO 639 language code.
func ValidLanguage(code string) bool {
	if len(code) != 2 {
		return false
	}
	_, err := language.Parse(code)
	return err == nil
}

// MyMemory is a Translator backed by the MyMemory HTTP API.
type MyMemory struct {
	endpoint string
	client   *http.Client
}

// NewMyMemory returns a MyMemory client. An empty endpoint selects the
// public API.
func NewMyMemory(endpoint string, timeout time.Duration) *MyMemory {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &MyMemory{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus int `json:"responseStatus"`
}

// Translate requests a translation from → to. Identical or unknown
// language codes short-circuit to the original text without a network
// round trip.
func (m *MyMemory) Translate(ctx context.Context, text, from, to string) (string, error) {
	if from == to {
		return text, nil
	}
	if !ValidLanguage(from) || !ValidLanguage(to) {
		return "", ErrUnknownLanguage
	}

	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", from+"|"+to)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint+"/get?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation service returned %s", resp.Status)
	}

	var body myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.ResponseStatus != http.StatusOK || body.ResponseData.TranslatedText == "" {
		return "", fmt.Errorf("translation service rejected request (status %d)", body.ResponseStatus)
	}

	return body.ResponseData.TranslatedText, nil
}
