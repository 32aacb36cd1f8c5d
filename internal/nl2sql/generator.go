// Package nl2sql talks to the generative backends that turn a prompt into
// free text containing SQL.
package nl2sql

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/novaquery/novaquery/internal/config"
)

var (
	ErrUnavailable = errors.New("generative backend unavailable")
	ErrTimeout     = errors.New("generative backend timed out")
	ErrBackend     = errors.New("generative backend failed")
)

// Generator makes one completion call. Implementations never retry.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Probe reports whether the backend is reachable and serves the model.
	Probe(ctx context.Context) error
	Name() string
}

func New(cfg config.AIConfig) (Generator, error) {
	switch cfg.Backend {
	case config.BackendOllama, "":
		return NewOllama(OllamaConfig{
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
	case config.BackendOpenAI:
		return NewOpenAI(OpenAIConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
	case config.BackendGemini:
		return NewGemini(context.Background(), GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported generative backend %q", cfg.Backend)
	}
}

// classify wraps err with the sentinel describing its failure mode.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrBackend) {
		return err
	}
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	case isConnectionFailure(err):
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrBackend, err)
	}
}

func isConnectionFailure(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func defaultTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 30 * time.Second
	}
	return timeout
}
