package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllama_Complete_ParsesResponseField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"hello there","done":true}`))
	}))
	defer srv.Close()

	o := NewOllama(srv.Client(), rate.NewLimiter(rate.Inf, 1), srv.URL, "llama3")
	resp, err := o.Complete(context.Background(), "sys", "user", false)
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Text)
	assert.Equal(t, "llama3", resp.Model)
}

func TestOllama_Complete_ParsesJSONModeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"{\"intents\":[]}","done":true}`))
	}))
	defer srv.Close()

	o := NewOllama(srv.Client(), rate.NewLimiter(rate.Inf, 1), srv.URL, "llama3")
	resp, err := o.Complete(context.Background(), "sys", "user", true)
	require.NoError(t, err)
	require.NotNil(t, resp.JSON)
	_, ok := resp.JSON["intents"]
	assert.True(t, ok)
}

func TestOllama_Complete_NonOKStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	o := NewOllama(srv.Client(), rate.NewLimiter(rate.Inf, 1), srv.URL, "llama3")
	_, err := o.Complete(context.Background(), "sys", "user", false)
	assert.Error(t, err)
}

func TestOllama_Stream_YieldsChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{\"response\":\"a\"}\n{\"response\":\"b\"}\n"))
	}))
	defer srv.Close()

	o := NewOllama(srv.Client(), rate.NewLimiter(rate.Inf, 1), srv.URL, "llama3")
	ch, err := o.Stream(context.Background(), "sys", "user")
	require.NoError(t, err)

	var got []string
	for chunk := range ch {
		got = append(got, chunk)
	}
	assert.Equal(t, []string{"a", "b"}, got)
}
