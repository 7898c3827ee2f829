package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop(t *testing.T) {
	got, err := Noop{}.Translate(context.Background(), "ciao", "it", "en")
	require.NoError(t, err)
	assert.Equal(t, "ciao", got)
}

func TestValidLanguage(t *testing.T) {
	assert.True(t, ValidLanguage("it"))
	assert.True(t, ValidLanguage("en"))
	assert.False(t, ValidLanguage(""))
	assert.False(t, ValidLanguage("ita"))
	assert.False(t, ValidLanguage("q1"))
}

func TestMyMemoryTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get", r.URL.Path)
		assert.Equal(t, "ciao", r.URL.Query().Get("q"))
		assert.Equal(t, "it|en", r.URL.Query().Get("langpair"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"responseData":{"translatedText":"hello"},"responseStatus":200}`))
	}))
	defer srv.Close()

	m := NewMyMemory(srv.URL, time.Second)
	got, err := m.Translate(context.Background(), "ciao", "it", "en")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestMyMemorySameLanguageShortCircuit(t *testing.T) {
	// No server at all: identical codes must never hit the network
	m := NewMyMemory("http://127.0.0.1:1", time.Second)
	got, err := m.Translate(context.Background(), "ciao", "it", "it")
	require.NoError(t, err)
	assert.Equal(t, "ciao", got)
}

func TestMyMemoryUnknownLanguage(t *testing.T) {
	m := NewMyMemory("http://127.0.0.1:1", time.Second)
	_, err := m.Translate(context.Background(), "ciao", "xx1", "en")
	assert.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestMyMemoryServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "quota exceeded", http.StatusTooManyRequests)
			},
		},
		{
			name: "rejected by service",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"responseData":{"translatedText":""},"responseStatus":403}`))
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			m := NewMyMemory(srv.URL, time.Second)
			_, err := m.Translate(context.Background(), "ciao", "it", "en")
			assert.Error(t, err)
		})
	}
}

func TestMyMemoryContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMyMemory(srv.URL, time.Second)
	_, err := m.Translate(ctx, "ciao", "it", "en")
	assert.Error(t, err)
}
