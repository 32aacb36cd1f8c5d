// Package pipeline answers one question end to end: classify, prompt,
// generate, extract, check, execute and format.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/novaquery/novaquery/internal/answer"
	"github.com/novaquery/novaquery/internal/catalog"
	"github.com/novaquery/novaquery/internal/intent"
	"github.com/novaquery/novaquery/internal/nl2sql"
	"github.com/novaquery/novaquery/internal/observability"
	"github.com/novaquery/novaquery/internal/prompt"
	"github.com/novaquery/novaquery/internal/query"
	"github.com/novaquery/novaquery/internal/sqlguard"
	"github.com/novaquery/novaquery/internal/temporal"
)

type Config struct {
	Catalog   *catalog.Catalog
	Dialect   query.Dialect
	Generator nl2sql.Generator
	Executor  query.Executor
	Logger    *slog.Logger
	// GenerateTimeout bounds the backend call. Zero means 30s.
	GenerateTimeout time.Duration
}

// Service holds only read-only collaborators and is safe for concurrent use.
type Service struct {
	catalog         *catalog.Catalog
	dialect         query.Dialect
	generator       nl2sql.Generator
	executor        query.Executor
	logger          *slog.Logger
	generateTimeout time.Duration
}

type Answer struct {
	Question string
	Route    intent.Kind
	SQL      string
	Result   string
	// UndeclaredAliases and MissingFilters are advisory findings.
	UndeclaredAliases []string
	MissingFilters    []temporal.Predicate
	Rows              int
}

func New(cfg Config) (*Service, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.Dialect == "" {
		cfg.Dialect = query.MySQL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 30 * time.Second
	}
	return &Service{
		catalog:         cfg.Catalog,
		dialect:         cfg.Dialect,
		generator:       cfg.Generator,
		executor:        cfg.Executor,
		logger:          cfg.Logger,
		generateTimeout: cfg.GenerateTimeout,
	}, nil
}

func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Ask runs the question through the pipeline. Business failures are returned
// as *Error. Backend and store calls are detached from caller cancellation and
// bounded only by their own timeouts.
func (s *Service) Ask(ctx context.Context, question string) (Answer, error) {
	logger := s.logger.With(slog.String("trace_id", observability.TraceIDFromContext(ctx)))

	route := intent.Classify(question)
	observability.ObserveQuestion(route.String())
	if route == intent.Conversational {
		return Answer{
			Question: question,
			Route:    route,
			SQL:      ConversationalSQLValue,
			Result:   intent.Respond(question),
		}, nil
	}

	detached := context.WithoutCancel(ctx)
	p := prompt.Build(question, s.catalog, s.dialect)

	raw, err := s.generate(detached, p.Text)
	if err != nil {
		pErr := generationError(err)
		return Answer{}, s.fail(logger, pErr, slog.String("backend", s.generator.Name()))
	}

	sqlText := sqlguard.Extract(raw)
	if sqlText == "" {
		return Answer{}, s.fail(logger, &Error{Kind: KindExtraction, Err: ErrNoStatement},
			slog.String("raw_output", truncate(raw, 2000)))
	}
	logger.Debug("generated_sql", slog.String("sql", sqlText))

	out := Answer{Question: question, Route: route, SQL: sqlText}
	if aliases := sqlguard.UndeclaredAliases(sqlText); len(aliases) > 0 {
		out.UndeclaredAliases = aliases
		observability.IncrementUndeclaredAlias()
		logger.Warn("undeclared_alias", slog.Any("aliases", aliases), slog.String("sql", sqlText))
	}
	if missing := temporal.Missing(sqlText, p.Filters); len(missing) > 0 {
		out.MissingFilters = missing
		observability.IncrementTemporalFilterMismatch()
		phrases := make([]string, 0, len(missing))
		for _, m := range missing {
			phrases = append(phrases, m.Phrase)
		}
		logger.Warn("temporal_filter_missing", slog.Any("phrases", phrases), slog.String("sql", sqlText))
	}

	start := time.Now()
	result, err := s.executor.Execute(detached, sqlText)
	observability.ObserveExecution(time.Since(start))
	if err != nil {
		return Answer{}, s.fail(logger, &Error{Kind: KindExecution, Err: err}, slog.String("sql", sqlText))
	}

	out.Rows = len(result.Rows)
	out.Result = answer.Format(question, result.Rows)
	return out, nil
}

func (s *Service) generate(ctx context.Context, promptText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.generateTimeout)
	defer cancel()

	start := time.Now()
	raw, err := s.generator.Generate(ctx, promptText)
	observability.ObserveGeneration(time.Since(start))
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, nl2sql.ErrTimeout) {
		err = fmt.Errorf("%w: %w", nl2sql.ErrTimeout, err)
	}
	return raw, err
}

func (s *Service) fail(logger *slog.Logger, pErr *Error, attrs ...any) error {
	observability.ObservePipelineFailure(string(pErr.Kind))
	args := append([]any{slog.String("kind", string(pErr.Kind)), slog.String("error", pErr.Err.Error())}, attrs...)
	logger.Error("question_failed", args...)
	return pErr
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
