package dune

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.dune.com"

// Execution states reported by the Dune API.
const (
	stateCompleted        = "QUERY_STATE_COMPLETED"
	stateCompletedPartial = "QUERY_STATE_COMPLETED_PARTIAL"
	stateFailed           = "QUERY_STATE_FAILED"
	stateCancelled        = "QUERY_STATE_CANCELLED"
	stateExpired          = "QUERY_STATE_EXPIRED"
)

// APIError is a non-2xx response from the Dune API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dune API error %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is match ErrCapability for plan-gated rejections.
func (e *APIError) Is(target error) bool {
	return target == ErrCapability && isCapabilityMessage(e.StatusCode, e.Message)
}

func isCapabilityMessage(status int, msg string) bool {
	if status == http.StatusPaymentRequired {
		return true
	}
	m := strings.ToLower(msg)
	return strings.Contains(m, "paid plan") || strings.Contains(m, "upgrade")
}

// Client is a thin wrapper over the Dune API v1.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type executeResponse struct {
	ExecutionID string `json:"execution_id"`
	State       string `json:"state"`
}

type statusResponse struct {
	ExecutionID string `json:"execution_id"`
	State       string `json:"state"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type resultsResponse struct {
	ExecutionID string `json:"execution_id"`
	State       string `json:"state"`
	Result      *struct {
		Rows     []json.RawMessage `json:"rows"`
		Metadata struct {
			ColumnNames []string `json:"column_names"`
		} `json:"metadata"`
	} `json:"result"`
}

type createRequest struct {
	Name     string `json:"name"`
	QuerySQL string `json:"query_sql"`
	Private  bool   `json:"is_private"`
}

type createResponse struct {
	QueryID int64 `json:"query_id"`
}

// Execute starts an execution of a saved query.
func (c *Client) Execute(ctx context.Context, queryID int64) (string, error) {
	var out executeResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/query/%d/execute", queryID), struct{}{}, &out); err != nil {
		return "", fmt.Errorf("execute query %d: %w", queryID, err)
	}
	if out.ExecutionID == "" {
		return "", fmt.Errorf("execute query %d: empty execution id", queryID)
	}
	return out.ExecutionID, nil
}

// Status returns the execution state and, for failed runs, the error message.
func (c *Client) Status(ctx context.Context, executionID string) (string, string, error) {
	var out statusResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/execution/"+executionID+"/status", nil, &out); err != nil {
		return "", "", fmt.Errorf("execution status: %w", err)
	}
	msg := ""
	if out.Error != nil {
		msg = out.Error.Message
	}
	return out.State, msg, nil
}

// Results fetches the result table of a finished execution.
func (c *Client) Results(ctx context.Context, executionID string) (Table, error) {
	var out resultsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/execution/"+executionID+"/results", nil, &out); err != nil {
		return Table{}, fmt.Errorf("execution results: %w", err)
	}
	if out.Result == nil {
		return Table{}, nil
	}
	return newTable(out.Result.Metadata.ColumnNames, out.Result.Rows)
}

// Create saves raw SQL as a new private query and returns its id.
func (c *Client) Create(ctx context.Context, name, sql string) (int64, error) {
	var out createResponse
	req := createRequest{Name: name, QuerySQL: sql, Private: true}
	if err := c.do(ctx, http.MethodPost, "/api/v1/query", req, &out); err != nil {
		return 0, fmt.Errorf("create query %q: %w", name, err)
	}
	if out.QueryID == 0 {
		return 0, fmt.Errorf("create query %q: empty query id", name)
	}
	return out.QueryID, nil
}

// Archive hides a query created by Create.
func (c *Client) Archive(ctx context.Context, queryID int64) error {
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/query/%d/archive", queryID), struct{}{}, nil); err != nil {
		return fmt.Errorf("archive query %d: %w", queryID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("X-DUNE-API-KEY", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &errResp) != nil || errResp.Error == "" {
			errResp.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
