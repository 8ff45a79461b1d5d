package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stackbyhq/stackby-mcp/api"
	"github.com/stackbyhq/stackby-mcp/client"
)

func newStubToolServer(t *testing.T, handler http.Handler) *toolServer {
	t.Helper()
	remote := httptest.NewServer(handler)
	t.Cleanup(remote.Close)
	upstream, err := client.New(remote.URL, client.WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	return newToolServer(upstream, nil, nil)
}

func TestHandleListStacksAggregatesWhenWorkspaceOmitted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/workspacelist", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []api.Workspace{
			{ID: "ws1", Name: "Engineering"},
			{ID: "ws2", Name: "Marketing"},
		}})
	})
	mux.HandleFunc("/stacklist", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("workspaceId") {
		case "ws1":
			_ = json.NewEncoder(w).Encode([]api.Stack{
				{ID: "st1", Name: "Backend"},
				{ID: "st2", Name: "Frontend"},
			})
		default:
			_ = json.NewEncoder(w).Encode([]api.Stack{{ID: "st3", Name: "Campaigns"}})
		}
	})
	s := newStubToolServer(t, mux)

	res, out, err := s.handleListStacks(context.Background(), nil, listStacksInput{})
	if err != nil {
		t.Fatalf("handleListStacks: %v", err)
	}
	if len(out.Stacks) != 3 {
		t.Fatalf("expected 3 stacks, got %d", len(out.Stacks))
	}
	text := resultText(t, res)
	if !strings.HasPrefix(text, "3 stacks") {
		t.Fatalf("unexpected summary: %q", text)
	}
	if !strings.Contains(text, "workspace=ws1") || !strings.Contains(text, "workspace=ws2") {
		t.Fatalf("expected workspace attribution in summary: %q", text)
	}
}

func TestHandleDescribeTableSummarizesColumnsAndViews(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tablelist/st1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]api.Table{{ID: "tb1", Name: "Deals"}})
	})
	mux.HandleFunc("/columnlist/st1/tb1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]api.Field{
			{ID: "c1", Name: "Title", Type: "text"},
			{ID: "c2", Name: "Amount", Type: "number"},
		})
	})
	mux.HandleFunc("/viewlist/st1/tb1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]api.View{{ID: "vw1", Name: "Grid"}})
	})
	s := newStubToolServer(t, mux)

	res, out, err := s.handleDescribeTable(context.Background(), nil, describeTableInput{StackID: "st1", TableID: "tb1"})
	if err != nil {
		t.Fatalf("handleDescribeTable: %v", err)
	}
	if out.Table == nil || out.Table.Name != "Deals" {
		t.Fatalf("expected table metadata, got %+v", out.Table)
	}
	text := resultText(t, res)
	for _, want := range []string{"table Deals (tb1)", "columns (2):", "Amount (number)", "views (1):", "Grid (vw1)"} {
		if !strings.Contains(text, want) {
			t.Fatalf("summary missing %q: %q", want, text)
		}
	}
}

func TestHandleCreateFieldDefaultsToFirstView(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/viewlist/st1/tb1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]api.View{
			{ID: "vw1", Name: "Grid"},
			{ID: "vw2", Name: "Kanban"},
		})
	})
	mux.HandleFunc("/columncreate/st1/tb1", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req api.CreateFieldRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode columncreate body: %v", err)
		}
		if req.ViewID != "vw1" {
			t.Errorf("expected default view vw1, got %q", req.ViewID)
		}
		_ = json.NewEncoder(w).Encode(api.Field{ID: "c9", Name: req.Name, Type: req.Type})
	})
	s := newStubToolServer(t, mux)

	res, out, err := s.handleCreateField(context.Background(), nil, createFieldInput{
		StackID: "st1", TableID: "tb1", Name: "Status", Type: "text",
	})
	if err != nil {
		t.Fatalf("handleCreateField: %v", err)
	}
	if out.Field == nil || out.Field.ID != "c9" {
		t.Fatalf("unexpected field: %+v", out.Field)
	}
	if !strings.Contains(resultText(t, res), "created column Status (c9)") {
		t.Fatalf("unexpected summary: %q", resultText(t, res))
	}
}

func TestHandleCreateFieldFailsWithoutViews(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/viewlist/st1/tb1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]api.View{})
	})
	s := newStubToolServer(t, mux)

	_, _, err := s.handleCreateField(context.Background(), nil, createFieldInput{
		StackID: "st1", TableID: "tb1", Name: "Status", Type: "text",
	})
	if err == nil {
		t.Fatal("expected error when table has no views")
	}
	if !strings.Contains(err.Error(), "viewId is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHandleGetRecordDumpsSortedColumns(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/row/st1/tb1/row1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(api.Record{ID: "row1", Field: map[string]any{
			"zeta":  "last",
			"alpha": 1,
		}})
	})
	s := newStubToolServer(t, mux)

	res, out, err := s.handleGetRecord(context.Background(), nil, getRecordInput{StackID: "st1", TableID: "tb1", RowID: "row1"})
	if err != nil {
		t.Fatalf("handleGetRecord: %v", err)
	}
	if out.Record == nil || out.Record.ID != "row1" {
		t.Fatalf("unexpected record: %+v", out.Record)
	}
	text := resultText(t, res)
	alpha := strings.Index(text, "alpha")
	zeta := strings.Index(text, "zeta")
	if alpha < 0 || zeta < 0 || alpha > zeta {
		t.Fatalf("expected sorted columns in dump: %q", text)
	}
}

func TestWithToolErrorsMissingCredentials(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("network call dispatched without credentials")
	}))
	defer remote.Close()
	upstream, err := client.New(remote.URL)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	s := newToolServer(upstream, nil, nil)

	wrapped := withToolErrors(toolListWorkspaces, s.metrics, s.handleListWorkspaces)
	_, _, err = wrapped(context.Background(), nil, listWorkspacesInput{})
	if err == nil {
		t.Fatal("expected missing credentials error")
	}
	env := decodeToolError(t, err)
	if env.ErrorCode != "missing_credentials" {
		t.Fatalf("unexpected error code: %q", env.ErrorCode)
	}
	if !strings.Contains(env.Hint, "STACKBY_API_KEY") {
		t.Fatalf("expected credentials hint, got %q", env.Hint)
	}
}

func TestWithToolErrorsCarriesRemoteStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tablelist/st1", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Code: "TABLE_NOT_FOUND", Message: "table not found"})
	})
	s := newStubToolServer(t, mux)

	wrapped := withToolErrors(toolListTables, s.metrics, s.handleListTables)
	_, _, err := wrapped(context.Background(), nil, listTablesInput{StackID: "st1"})
	if err == nil {
		t.Fatal("expected remote error")
	}
	env := decodeToolError(t, err)
	if env.ErrorCode != "TABLE_NOT_FOUND" {
		t.Fatalf("unexpected error code: %q", env.ErrorCode)
	}
	if env.HTTPStatus != http.StatusNotFound {
		t.Fatalf("unexpected http status: %d", env.HTTPStatus)
	}
	if !strings.Contains(env.Detail, "table not found") {
		t.Fatalf("expected remote message in detail: %q", env.Detail)
	}
}

func TestClassifyToolErrorHeuristics(t *testing.T) {
	cases := []struct {
		detail string
		want   string
	}{
		{"stackby: stackId is required", "invalid_argument"},
		{"stackby: at most 10 records per call", "invalid_argument"},
		{"context deadline exceeded", "timeout"},
		{"something else entirely", "tool_error"},
	}
	for _, tc := range cases {
		env := classifyToolError(toolListRecords, errString(tc.detail))
		if env.ErrorCode != tc.want {
			t.Fatalf("classifyToolError(%q) = %q, want %q", tc.detail, env.ErrorCode, tc.want)
		}
	}
}

func TestRegisteredToolsHaveDescriptionsAndHints(t *testing.T) {
	for name := range toolDescriptions {
		if strings.TrimSpace(toolDescriptions[name]) == "" {
			t.Fatalf("tool %q has an empty description", name)
		}
	}
	for name := range toolHints {
		if _, ok := toolDescriptions[name]; !ok {
			t.Fatalf("hint for unknown tool %q", name)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func decodeToolError(t *testing.T, err error) toolErrorEnvelope {
	t.Helper()
	var wire struct {
		Error toolErrorEnvelope `json:"error"`
	}
	if jsonErr := json.Unmarshal([]byte(err.Error()), &wire); jsonErr != nil {
		t.Fatalf("tool error is not a JSON envelope: %v (%q)", jsonErr, err.Error())
	}
	return wire.Error
}

func resultText(t *testing.T, res *mcpsdk.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("expected text content in result")
	}
	text, ok := res.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text
}
