//go:build integration

package api

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/novaquery/novaquery/internal/catalog"
	"github.com/novaquery/novaquery/internal/config"
	"github.com/novaquery/novaquery/internal/demo/seed"
	"github.com/novaquery/novaquery/internal/migrations"
	"github.com/novaquery/novaquery/internal/pipeline"
	"github.com/novaquery/novaquery/internal/store"
)

func TestAIQueryAgainstMySQL(t *testing.T) {
	ctx := context.Background()
	container, err := mysql.Run(ctx,
		"mysql:8.4",
		mysql.WithDatabase("kiosk"),
		mysql.WithUsername("kiosk"),
		mysql.WithPassword("kiosk"),
		testcontainers.WithWaitStrategy(wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "parseTime=true", "multiStatements=false")
	require.NoError(t, err)
	runEndToEnd(t, config.StoreConfig{Dialect: "mysql", DSN: dsn, MaxOpenConns: 4, MaxIdleConns: 4, QueryTimeout: 10 * time.Second})
}

func TestAIQueryAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("kiosk"),
		postgres.WithUsername("kiosk"),
		postgres.WithPassword("kiosk"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	runEndToEnd(t, config.StoreConfig{Dialect: "postgres", DSN: dsn, MaxOpenConns: 4, MaxIdleConns: 4, QueryTimeout: 10 * time.Second})
}

func runEndToEnd(t *testing.T, storeCfg config.StoreConfig) {
	t.Helper()
	ctx := context.Background()

	salesStore, err := store.Open(ctx, storeCfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = salesStore.Close() })

	runner, err := migrations.NewRunner(salesStore.Dialect)
	require.NoError(t, err)
	applied, err := runner.Up(ctx, salesStore.DB, 0)
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	dataset := seed.NewGenerator(42, 30*24*time.Hour).Generate(10, 80)
	loader := &seed.Loader{DB: salesStore.DB, Dialect: salesStore.Dialect}
	_, err = loader.Load(ctx, dataset, true)
	require.NoError(t, err)

	generator := &scriptedGenerator{replies: map[string]string{
		"best selling": "```sql\nSELECT oi.name, SUM(oi.quantity) AS total_qty\nFROM order_items oi\nGROUP BY oi.name\nORDER BY total_qty DESC\nLIMIT 1;\n```",
		"revenue":      "Here you go:\nSELECT SUM(t.total) AS revenue FROM transactions t",
		"missing":      "SELECT x.name FROM no_such_table x",
	}}
	service, err := pipeline.New(pipeline.Config{
		Catalog:   catalog.Default(),
		Dialect:   salesStore.Dialect,
		Generator: generator,
		Executor:  salesStore.Executor,
	})
	require.NoError(t, err)

	cfg := loadConfig(t, map[string]string{"NOVAQUERY_PROFILE": "test"})
	h := NewHandler(cfg, Dependencies{
		Pipeline:  service,
		Catalog:   catalog.Default(),
		Readiness: CombineReadinessChecks(salesStore.Ping, generator.Probe),
	})

	rr := postQuestion(h, `{"question":"what's the best selling item?"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	require.Equal(t, true, body["success"])
	require.True(t, strings.HasPrefix(body["result"].(string), "The best selling item is "), body["result"])
	require.NotContains(t, body["sql"], ";")

	rr = postQuestion(h, `{"question":"what is our total revenue?"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.True(t, strings.HasPrefix(decodeBody(t, rr)["result"].(string), "Total revenue is $"))

	rr = postQuestion(h, `{"question":"how many orders from the missing table"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Equal(t, pipeline.NotUnderstoodMessage, decodeBody(t, rr)["error"])

	rr = postQuestion(h, `{"question":"hello"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, pipeline.ConversationalSQLValue, decodeBody(t, rr)["sql"])
}

// scriptedGenerator answers from the first keyword found in the prompt's
// question line.
type scriptedGenerator struct {
	replies map[string]string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	question := prompt
	if i := strings.Index(prompt, `Question: """`); i >= 0 {
		question = prompt[i:]
		if j := strings.Index(question[len(`Question: """`):], `"""`); j >= 0 {
			question = question[:len(`Question: """`)+j]
		}
	}
	question = strings.ToLower(question)
	for key, reply := range g.replies {
		if strings.Contains(question, key) {
			return reply, nil
		}
	}
	return "I cannot help with that.", nil
}

func (g *scriptedGenerator) Probe(context.Context) error { return nil }

func (g *scriptedGenerator) Name() string { return "scripted" }
