package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaquery/novaquery/internal/intent"
	"github.com/novaquery/novaquery/internal/nl2sql"
	"github.com/novaquery/novaquery/internal/query"
)

type fakeGenerator struct {
	mu      sync.Mutex
	output  string
	err     error
	delay   time.Duration
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.output, f.err
}

func (f *fakeGenerator) Probe(context.Context) error { return nil }
func (f *fakeGenerator) Name() string                { return "fake" }

type fakeExecutor struct {
	result query.Result
	err    error
	calls  []string
}

func (f *fakeExecutor) Execute(ctx context.Context, sqlText string) (query.Result, error) {
	f.calls = append(f.calls, sqlText)
	return f.result, f.err
}

func newService(t *testing.T, gen *fakeGenerator, exec *fakeExecutor) *Service {
	t.Helper()
	svc, err := New(Config{Generator: gen, Executor: exec, GenerateTimeout: time.Second})
	require.NoError(t, err)
	return svc
}

func TestAskConversationalSkipsBackend(t *testing.T) {
	gen := &fakeGenerator{}
	exec := &fakeExecutor{}
	svc := newService(t, gen, exec)

	a, err := svc.Ask(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, intent.Conversational, a.Route)
	assert.Equal(t, "N/A (Conversational query)", a.SQL)
	assert.Equal(t, "Hello! I'm Nova AI, your sales and inventory assistant. How can I help you today?", a.Result)
	assert.Empty(t, gen.prompts)
	assert.Empty(t, exec.calls)
}

func TestAskBusinessQuestion(t *testing.T) {
	gen := &fakeGenerator{output: "```sql\nSELECT name, SUM(quantity) AS qty FROM order_items GROUP BY name ORDER BY qty DESC LIMIT 1;\n```"}
	exec := &fakeExecutor{result: query.Result{Columns: []string{"name", "qty"}, Rows: [][]any{{"Burger", int64(42)}}}}
	svc := newService(t, gen, exec)

	a, err := svc.Ask(context.Background(), "what's the best selling item?")
	require.NoError(t, err)
	assert.Equal(t, "SELECT name, SUM(quantity) AS qty FROM order_items GROUP BY name ORDER BY qty DESC LIMIT 1", a.SQL)
	assert.Equal(t, "The best selling item is Burger with 42 orders.", a.Result)
	assert.Equal(t, []string{a.SQL}, exec.calls)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], `Question: """what's the best selling item?"""`)
}

func TestAskReportsAdvisoryFindingsWithoutBlocking(t *testing.T) {
	gen := &fakeGenerator{output: "SELECT SUM(t.total) FROM transactions WHERE payment_time >= NOW() - INTERVAL 30 DAY"}
	exec := &fakeExecutor{result: query.Result{Rows: [][]any{{1500.0}}}}
	svc := newService(t, gen, exec)

	a, err := svc.Ask(context.Background(), "total revenue last month")
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, a.UndeclaredAliases)
	require.Len(t, a.MissingFilters, 1)
	assert.Equal(t, "last month", a.MissingFilters[0].Phrase)
	assert.Equal(t, "Total revenue is $1500.0.", a.Result)
	assert.Len(t, exec.calls, 1)
}

func TestAskErrorKinds(t *testing.T) {
	cases := []struct {
		name    string
		gen     *fakeGenerator
		exec    *fakeExecutor
		kind    Kind
		message string
	}{
		{
			name:    "connection",
			gen:     &fakeGenerator{err: fmt.Errorf("dial: %w", nl2sql.ErrUnavailable)},
			kind:    KindConnection,
			message: ServiceTroubleMessage,
		},
		{
			name:    "timeout",
			gen:     &fakeGenerator{err: fmt.Errorf("slow: %w", nl2sql.ErrTimeout)},
			kind:    KindTimeout,
			message: ServiceTroubleMessage,
		},
		{
			name:    "backend",
			gen:     &fakeGenerator{err: fmt.Errorf("500: %w", nl2sql.ErrBackend)},
			kind:    KindBackend,
			message: ServiceTroubleMessage,
		},
		{
			name:    "extraction",
			gen:     &fakeGenerator{output: "I cannot help with that."},
			kind:    KindExtraction,
			message: NotUnderstoodMessage,
		},
		{
			name:    "execution",
			gen:     &fakeGenerator{output: "SELECT nope FROM missing"},
			exec:    &fakeExecutor{err: errors.New("Error 1146: Table 'kiosk.missing' doesn't exist")},
			kind:    KindExecution,
			message: NotUnderstoodMessage,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exec := tc.exec
			if exec == nil {
				exec = &fakeExecutor{}
			}
			svc := newService(t, tc.gen, exec)
			_, err := svc.Ask(context.Background(), "total revenue today")
			var pErr *Error
			require.ErrorAs(t, err, &pErr)
			assert.Equal(t, tc.kind, pErr.Kind)
			assert.Equal(t, tc.message, pErr.UserMessage())

			env := NewEnvelope(Answer{}, err)
			assert.False(t, env.Success)
			assert.Equal(t, tc.message, env.Error)
			assert.NotContains(t, env.Error, "1146")
		})
	}
}

func TestAskGeneratorDeadlineBecomesTimeout(t *testing.T) {
	gen := &fakeGenerator{delay: time.Second}
	svc, err := New(Config{Generator: gen, Executor: &fakeExecutor{}, GenerateTimeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = svc.Ask(context.Background(), "revenue today")
	var pErr *Error
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, KindTimeout, pErr.Kind)
}

func TestAskIgnoresCallerCancellation(t *testing.T) {
	gen := &fakeGenerator{output: "SELECT COUNT(*) FROM transactions", delay: 30 * time.Millisecond}
	exec := &fakeExecutor{result: query.Result{Rows: [][]any{{int64(9)}}}}
	svc := newService(t, gen, exec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a, err := svc.Ask(ctx, "how many orders?")
	require.NoError(t, err)
	assert.Equal(t, "9 orders.", a.Result)
}

func TestEnvelopeJSON(t *testing.T) {
	ok, err := json.Marshal(NewEnvelope(Answer{Question: "hello", SQL: ConversationalSQLValue, Result: "hi"}, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"question":"hello","sql":"N/A (Conversational query)","result":"hi"}`, string(ok))

	failed, err := json.Marshal(NewEnvelope(Answer{}, &Error{Kind: KindExtraction, Err: ErrNoStatement}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"`+NotUnderstoodMessage+`"}`, string(failed))
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{Executor: &fakeExecutor{}})
	assert.Error(t, err)
	_, err = New(Config{Generator: &fakeGenerator{}})
	assert.Error(t, err)
}

func TestUserMessageForForeignError(t *testing.T) {
	assert.Equal(t, NotUnderstoodMessage, UserMessage(errors.New("x")))
}
