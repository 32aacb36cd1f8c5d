package nl2sql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerateConcatenatesStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "mistral", payload["model"])
		assert.Equal(t, "PROMPT", payload["prompt"])

		fmt.Fprintln(w, `{"response":"SELECT ","done":false}`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `{"response":"1","done":false}`)
		fmt.Fprintln(w, `{"response":"","done":true}`)
	}))
	defer srv.Close()

	g, err := NewOllama(OllamaConfig{BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	out, err := g.Generate(context.Background(), "PROMPT")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", out)
	assert.Equal(t, "ollama/mistral", g.Name())
}

func TestOllamaGenerateStreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"error":"model 'mistral' not found"}`)
	}))
	defer srv.Close()

	g, _ := NewOllama(OllamaConfig{BaseURL: srv.URL})
	_, err := g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrBackend)
}

func TestOllamaGenerateHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g, _ := NewOllama(OllamaConfig{BaseURL: srv.URL})
	_, err := g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrBackend)
}

func TestOllamaGenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	g, _ := NewOllama(OllamaConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestOllamaGenerateConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	g, _ := NewOllama(OllamaConfig{BaseURL: "http://" + addr})
	_, err = g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOllamaProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		fmt.Fprint(w, `{"models":[{"name":"llama3:8b"},{"name":"mistral:latest"}]}`)
	}))
	defer srv.Close()

	g, _ := NewOllama(OllamaConfig{BaseURL: srv.URL})
	require.NoError(t, g.Probe(context.Background()))

	missing, _ := NewOllama(OllamaConfig{BaseURL: srv.URL, Model: "phi3"})
	assert.ErrorIs(t, missing.Probe(context.Background()), ErrUnavailable)
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classify("op", nil))
	assert.ErrorIs(t, classify("op", context.DeadlineExceeded), ErrTimeout)
	assert.ErrorIs(t, classify("op", &net.OpError{Op: "dial", Err: errors.New("refused")}), ErrUnavailable)
	assert.ErrorIs(t, classify("op", errors.New("tls handshake")), ErrBackend)

	already := fmt.Errorf("x: %w", ErrTimeout)
	assert.Equal(t, already, classify("op", already))
}
