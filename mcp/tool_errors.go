package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stackbyhq/stackby-mcp/client"
)

// toolErrorEnvelope is the one-line diagnostic returned for every failed
// tool call: what went wrong, the remote status when there was one, and the
// tool's contextual hint.
type toolErrorEnvelope struct {
	ErrorCode  string `json:"error_code"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Hint       string `json:"hint,omitempty"`
}

type toolError struct {
	Envelope toolErrorEnvelope
}

func (e toolError) Error() string {
	encoded, err := json.Marshal(map[string]any{"error": e.Envelope})
	if err != nil {
		return `{"error":{"error_code":"tool_error","detail":"failed to encode error envelope"}}`
	}
	return string(encoded)
}

// withToolErrors folds handler failures into the structured envelope and
// counts call outcomes.
func withToolErrors[In, Out any](name string, metrics *toolMetrics, h mcpsdk.ToolHandlerFor[In, Out]) mcpsdk.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, Out, error) {
		res, out, err := h(ctx, req, input)
		if err == nil {
			metrics.observe(name, "ok")
			return res, out, nil
		}
		metrics.observe(name, "error")
		var zero Out
		return nil, zero, toolError{Envelope: classifyToolError(name, err)}
	}
}

func classifyToolError(tool string, err error) toolErrorEnvelope {
	env := toolErrorEnvelope{
		ErrorCode: "tool_error",
		Detail:    strings.TrimSpace(err.Error()),
		Hint:      toolHints[tool],
	}
	if errors.Is(err, client.ErrNoCredentials) {
		env.ErrorCode = "missing_credentials"
		env.Hint = "set STACKBY_API_KEY for stdio mode, or send an api-key header per request"
		return env
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		env.HTTPStatus = apiErr.Status
		code := strings.TrimSpace(apiErr.Response.Code)
		if code == "" {
			code = "http_" + strconv.Itoa(apiErr.Status)
		}
		env.ErrorCode = code
		return env
	}
	lower := strings.ToLower(env.Detail)
	switch {
	case strings.Contains(lower, "required"),
		strings.Contains(lower, "at least"),
		strings.Contains(lower, "at most"),
		strings.Contains(lower, "invalid"):
		env.ErrorCode = "invalid_argument"
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline"):
		env.ErrorCode = "timeout"
	}
	return env
}
