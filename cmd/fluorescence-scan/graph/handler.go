package graph

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/logger"
	"github.com/ispyb/fluorescence-scan/internal/metrics"

	gqlgen "github.com/99designs/gqlgen/graphql"
	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/errors"
	"go.uber.org/zap"
)

// maxRequestBytes bounds the size of a request body.
const maxRequestBytes = 1 << 20

// NewHandler creates a new Handler instance.
func NewHandler(
	logger *zap.Logger,
	schema *graphql.Schema,
	metrics *metrics.Metrics,
) *Handler {
	return &Handler{
		logger:  logger,
		schema:  schema,
		metrics: metrics,
	}
}

// Handler serves GraphQL over HTTP POST requests.
type Handler struct {
	logger  *zap.Logger
	schema  *graphql.Schema
	metrics *metrics.Metrics
}

// ServeHTTP implements the http.Handler interface.
func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	logger := h.logger.With(logger.ContextFields(ctx)...)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.write(w, http.StatusMethodNotAllowed, requestError("only POST requests are supported"))
		return
	}

	var params gqlgen.RawParams
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(&params); err != nil {
		logger.Debug("while decoding graphql request", zap.Error(err))
		h.write(w, http.StatusBadRequest, requestError("request body is not a valid GraphQL request"))
		return
	}
	if params.Query == "" {
		h.write(w, http.StatusBadRequest, requestError("request has no query"))
		return
	}

	resp := h.schema.Exec(ctx, params.Query, params.OperationName, params.Variables)

	hasData := len(resp.Data) > 0 && string(resp.Data) != "null"
	h.metrics.ObserveOperation(start, hasData, len(resp.Errors))

	if len(resp.Errors) > 0 {
		logger.Warn(
			"operation completed with errors",
			zap.String("operation", params.OperationName),
			zap.Errors("errors", queryErrors(resp.Errors)),
		)
	}
	logger.Info(
		"operation complete",
		zap.String("operation", params.OperationName),
		zap.Duration("duration", time.Since(start)),
	)

	h.write(w, http.StatusOK, resp)
}

func (h Handler) write(w http.ResponseWriter, status int, resp *graphql.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("while encoding graphql response", zap.Error(err))
	}
}

func requestError(message string) *graphql.Response {
	return &graphql.Response{
		Errors: []*errors.QueryError{{
			Message:    message,
			Extensions: map[string]interface{}{"code": CodeBadUserInput},
		}},
	}
}

func queryErrors(qerrs []*errors.QueryError) []error {
	errs := make([]error, 0, len(qerrs))
	for _, qerr := range qerrs {
		errs = append(errs, qerr)
	}
	return errs
}
