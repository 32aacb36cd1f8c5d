package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/novaquery/novaquery/internal/catalog"
	"github.com/novaquery/novaquery/internal/pipeline"
)

const (
	maxQuestionBody      = 64 << 10
	noQuestionMessage    = "No question provided"
	invalidBodyMessage   = "Request body must be JSON with a question field"
	notConfiguredMessage = "Question answering is not configured"
)

type askRequest struct {
	Question *string `json:"question"`
}

func handleAIQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeJSON(w, http.StatusNotImplemented, pipeline.Envelope{Success: false, Error: notConfiguredMessage})
		return
	}

	var request askRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxQuestionBody))
	if err := decoder.Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, pipeline.Envelope{Success: false, Error: invalidBodyMessage})
		return
	}
	if request.Question == nil || strings.TrimSpace(*request.Question) == "" {
		writeJSON(w, http.StatusBadRequest, pipeline.Envelope{Success: false, Error: noQuestionMessage})
		return
	}

	ans, err := deps.Pipeline.Ask(r.Context(), *request.Question)
	writeJSON(w, statusFor(err), pipeline.NewEnvelope(ans, err))
}

// statusFor maps pipeline failures onto HTTP status codes. The body never
// carries more than the user message.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var pErr *pipeline.Error
	if !errors.As(err, &pErr) {
		return http.StatusInternalServerError
	}
	switch pErr.Kind {
	case pipeline.KindTimeout:
		return http.StatusGatewayTimeout
	case pipeline.KindConnection, pipeline.KindBackend:
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}

type schemaResponse struct {
	TimeColumn string          `json:"time_column"`
	Tables     []catalog.Table `json:"tables"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Catalog == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema catalog is not configured", false, nil)
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{
		TimeColumn: deps.Catalog.TimeColumn(),
		Tables:     deps.Catalog.Tables(),
	})
}
