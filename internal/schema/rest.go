package schema

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
)

const (
	DefaultRPC = "exec_sql"

	restPrefix = "/rest/v1"
)

// StatusError is returned when the endpoint answers with a non-success status.
type StatusError struct {
	Operation string
	Code      int
	Body      string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Operation, e.Code, e.Body)
}

// RESTExecutor sends statements to a PostgREST rpc function that executes raw SQL.
type RESTExecutor struct {
	client *req.Client
	rpc    string
}

func NewRESTExecutor(baseURL, key, rpc string) *RESTExecutor {
	if rpc == "" {
		rpc = DefaultRPC
	}

	client := req.C().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")+restPrefix).
		SetTimeout(60*time.Second).
		SetCommonHeader("apikey", key).
		SetCommonBearerAuthToken(key).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal)

	return &RESTExecutor{client: client, rpc: rpc}
}

func (e *RESTExecutor) Ping(ctx context.Context) error {
	resp, err := e.client.R().
		SetContext(ctx).
		Get("/")
	return checkResponse("ping", resp, err, http.StatusOK)
}

func (e *RESTExecutor) Exec(ctx context.Context, statement string) error {
	resp, err := e.client.R().
		SetContext(ctx).
		SetBodyJsonMarshal(map[string]string{"query": statement}).
		Post("/rpc/" + e.rpc)
	return checkResponse("exec", resp, err, http.StatusOK, http.StatusCreated, http.StatusNoContent)
}

// ProbeTable reads at most one row from table and returns how many rows came back.
func (e *RESTExecutor) ProbeTable(ctx context.Context, table string) (int, error) {
	var rows []map[string]any
	resp, err := e.client.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetQueryParam("limit", "1").
		SetSuccessResult(&rows).
		Get("/" + table)
	if err := checkResponse("probe "+table, resp, err, http.StatusOK, http.StatusPartialContent); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func checkResponse(operation string, resp *req.Response, err error, ok ...int) error {
	if err != nil {
		return fmt.Errorf("http request error: %s: %w", operation, err)
	}

	for _, code := range ok {
		if resp.StatusCode == code {
			return nil
		}
	}

	body := resp.String()
	if len(body) > 200 {
		body = body[:200]
	}
	return &StatusError{Operation: operation, Code: resp.StatusCode, Body: body}
}
