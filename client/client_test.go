package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stackbyhq/stackby-mcp/api"
	"github.com/stackbyhq/stackby-mcp/credentials"
)

func TestUnwrapHandlesEnvelopeAndBarePayloads(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"wrapped object", `{"data":{"id":"w1"}}`, `{"id":"w1"}`},
		{"wrapped array", `{"data":[1,2,3]}`, `[1,2,3]`},
		{"wrapped scalar", `{"data":5}`, `5`},
		{"bare object", `{"id":"w1"}`, `{"id":"w1"}`},
		{"bare array", `[{"id":"w1"}]`, `[{"id":"w1"}]`},
		{"bare scalar", `42`, `42`},
		{"bare string", `"ok"`, `"ok"`},
	}
	for _, tc := range cases {
		got := string(Unwrap([]byte(tc.in)))
		if got != tc.want {
			t.Fatalf("%s: Unwrap(%s) = %s, want %s", tc.name, tc.in, got, tc.want)
		}
	}
	if out := Unwrap(nil); out != nil {
		t.Fatalf("Unwrap(nil) = %s, want nil", out)
	}
}

type countingTransport struct {
	calls int64
	next  http.RoundTripper
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt64(&c.calls, 1)
	return c.next.RoundTrip(req)
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) (*Client, *countingTransport) {
	t.Helper()
	counter := &countingTransport{next: srv.Client().Transport}
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: counter})}, opts...)
	cli, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	return cli, counter
}

func TestMissingCredentialsFailsBeforeNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without credentials")
	}))
	defer srv.Close()

	cli, counter := newTestClient(t, srv)
	_, err := cli.ListWorkspaces(context.Background())
	if err != ErrNoCredentials {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
	if n := atomic.LoadInt64(&counter.calls); n != 0 {
		t.Fatalf("expected 0 HTTP calls, got %d", n)
	}
}

func TestEmptyIdentifiersFailBeforeNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for invalid identifiers")
	}))
	defer srv.Close()

	cli, counter := newTestClient(t, srv, WithAPIKey("k"))
	ctx := context.Background()

	if _, err := cli.ListTables(ctx, "   "); err == nil {
		t.Fatal("expected error for whitespace stackId")
	}
	if _, err := cli.ListFields(ctx, "st1", ""); err == nil {
		t.Fatal("expected error for empty tableId")
	}
	if _, err := cli.ListRecords(ctx, "", "tbl", ListRecordsOptions{}); err == nil {
		t.Fatal("expected error for empty stackId")
	}
	if _, err := cli.GetRecord(ctx, "st1", "tbl", " "); err == nil {
		t.Fatal("expected error for whitespace rowId")
	}
	if n := atomic.LoadInt64(&counter.calls); n != 0 {
		t.Fatalf("expected 0 HTTP calls, got %d", n)
	}
}

func TestContextCredentialsTakePrecedence(t *testing.T) {
	var gotKey atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.Header.Get("api-key"))
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	cli, _ := newTestClient(t, srv, WithAPIKey("process-key"))

	ctx := credentials.WithContext(context.Background(), credentials.Credentials{APIKey: "caller-key"})
	if _, err := cli.ListWorkspaces(ctx); err != nil {
		t.Fatalf("ListWorkspaces: %v", err)
	}
	if got := gotKey.Load(); got != "caller-key" {
		t.Fatalf("expected caller-key, server saw %v", got)
	}

	if _, err := cli.ListWorkspaces(context.Background()); err != nil {
		t.Fatalf("ListWorkspaces fallback: %v", err)
	}
	if got := gotKey.Load(); got != "process-key" {
		t.Fatalf("expected process-key fallback, server saw %v", got)
	}
}

func TestPersonalAccessTokenAlsoSentAsBearer(t *testing.T) {
	var auth, key atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key.Store(r.Header.Get("api-key"))
		auth.Store(r.Header.Get("Authorization"))
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	cli, _ := newTestClient(t, srv, WithAPIKey("pat_token123"))
	if _, err := cli.ListWorkspaces(context.Background()); err != nil {
		t.Fatalf("ListWorkspaces: %v", err)
	}
	if key.Load() != "pat_token123" {
		t.Fatalf("api-key header = %v", key.Load())
	}
	if auth.Load() != "Bearer pat_token123" {
		t.Fatalf("Authorization header = %v", auth.Load())
	}
}

func TestListAllStacksSkipsFailingWorkspace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/workspacelist"):
			fmt.Fprint(w, `{"data":[{"id":"ws1","name":"One"},{"id":"ws2","name":"Two"}]}`)
		case strings.HasPrefix(r.URL.Path, "/stacklist"):
			if r.URL.Query().Get("workspaceId") == "ws1" {
				http.Error(w, `{"message":"forbidden"}`, http.StatusForbidden)
				return
			}
			fmt.Fprint(w, `{"data":[{"stackId":"st2","stackName":"Beta"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cli, _ := newTestClient(t, srv, WithAPIKey("k"))
	stacks, err := cli.ListAllStacks(context.Background())
	if err != nil {
		t.Fatalf("ListAllStacks: %v", err)
	}
	if len(stacks) != 1 || stacks[0].ID != "st2" {
		t.Fatalf("expected only st2, got %+v", stacks)
	}
	if stacks[0].WorkspaceID != "ws2" {
		t.Fatalf("expected workspace backfill ws2, got %q", stacks[0].WorkspaceID)
	}
}

func TestSearchRecordsResolvesFirstColumn(t *testing.T) {
	var searchColumn atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/columnlist/"):
			fmt.Fprint(w, `{"data":[{"id":"c1","name":"Name","type":"text"},{"id":"c2","name":"Age","type":"number"}]}`)
		case strings.HasPrefix(r.URL.Path, "/rowsearch/"):
			searchColumn.Store(r.URL.Query().Get("column"))
			fmt.Fprint(w, `{"data":[{"id":"rec1","field":{"Name":"Ada"}}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cli, _ := newTestClient(t, srv, WithAPIKey("k"))
	records, err := cli.SearchRecords(context.Background(), "st1", "tbl1", "Ada", "")
	if err != nil {
		t.Fatalf("SearchRecords: %v", err)
	}
	if searchColumn.Load() != "Name" {
		t.Fatalf("expected first column Name, searched %v", searchColumn.Load())
	}
	if len(records) != 1 || records[0].ID != "rec1" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestSearchRecordsEmptyColumnListYieldsEmptyResult(t *testing.T) {
	var searched atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/rowsearch/") {
			searched.Store(true)
		}
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	cli, _ := newTestClient(t, srv, WithAPIKey("k"))
	records, err := cli.SearchRecords(context.Background(), "st1", "tbl1", "Ada", "")
	if err != nil {
		t.Fatalf("SearchRecords: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil result, got %+v", records)
	}
	if searched.Load() {
		t.Fatal("search endpoint must not be called when the table has no columns")
	}
}

func TestUpdateRecordsBatchBounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.UpdateRecordsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode update payload: %v", err)
		}
		out := make([]api.Record, 0, len(req.Records))
		for _, u := range req.Records {
			out = append(out, api.Record{ID: u.ID, Field: u.Field})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": out})
	}))
	defer srv.Close()

	cli, counter := newTestClient(t, srv, WithAPIKey("k"))
	ctx := context.Background()

	batch := func(n int) []api.RecordUpdate {
		out := make([]api.RecordUpdate, n)
		for i := range out {
			out[i] = api.RecordUpdate{ID: fmt.Sprintf("rec%d", i), Field: map[string]any{"Name": i}}
		}
		return out
	}

	if _, err := cli.UpdateRecords(ctx, "st1", "tbl1", nil); err == nil {
		t.Fatal("size 0 must be rejected")
	}
	if _, err := cli.UpdateRecords(ctx, "st1", "tbl1", batch(11)); err == nil {
		t.Fatal("size 11 must be rejected")
	}
	if n := atomic.LoadInt64(&counter.calls); n != 0 {
		t.Fatalf("rejected batches must not dispatch, got %d calls", n)
	}

	if _, err := cli.UpdateRecords(ctx, "st1", "tbl1", batch(1)); err != nil {
		t.Fatalf("size 1 must be accepted: %v", err)
	}
	got, err := cli.UpdateRecords(ctx, "st1", "tbl1", batch(10))
	if err != nil {
		t.Fatalf("size 10 must be accepted: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 echoed records, got %d", len(got))
	}
}

func TestDeleteRecordsBatchBounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.DeleteRecordsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode delete payload: %v", err)
		}
		out := make([]api.DeletedRecord, 0, len(req.RowIDs))
		for _, id := range req.RowIDs {
			out = append(out, api.DeletedRecord{ID: id, Deleted: true})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	cli, counter := newTestClient(t, srv, WithAPIKey("k"))
	ctx := context.Background()

	ids := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprintf("rec%d", i)
		}
		return out
	}

	if _, err := cli.DeleteRecords(ctx, "st1", "tbl1", nil); err == nil {
		t.Fatal("size 0 must be rejected")
	}
	if _, err := cli.DeleteRecords(ctx, "st1", "tbl1", ids(11)); err == nil {
		t.Fatal("size 11 must be rejected")
	}
	if n := atomic.LoadInt64(&counter.calls); n != 0 {
		t.Fatalf("rejected batches must not dispatch, got %d calls", n)
	}

	got, err := cli.DeleteRecords(ctx, "st1", "tbl1", ids(10))
	if err != nil {
		t.Fatalf("size 10 must be accepted: %v", err)
	}
	if len(got) != 10 || !got[0].Deleted {
		t.Fatalf("unexpected delete acks %+v", got)
	}
}

func TestCreateRecordEchoAndRemoteError(t *testing.T) {
	fail := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"table not found"}`)
			return
		}
		fmt.Fprint(w, `{"data":[{"id":"rec1","field":{"Name":"Task 1"}}]}`)
	}))
	defer srv.Close()

	cli, _ := newTestClient(t, srv, WithAPIKey("k"))
	rec, err := cli.CreateRecord(context.Background(), "st1", "tbl1", map[string]any{"Name": "Task 1"})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if rec.ID != "rec1" || rec.Field["Name"] != "Task 1" {
		t.Fatalf("unexpected record %+v", rec)
	}

	fail = true
	_, err = cli.CreateRecord(context.Background(), "st1", "tbl1", map[string]any{"Name": "Task 1"})
	if err == nil {
		t.Fatal("expected remote error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message() != "table not found" {
		t.Fatalf("unexpected APIError %+v", apiErr)
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "table not found") {
		t.Fatalf("error text should carry status and message, got %q", err.Error())
	}
}

func TestConcurrentCallersObserveOnlyTheirKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Echo back which key was used as the workspace name.
		fmt.Fprintf(w, `{"data":[{"id":"ws1","name":%q}]}`, r.Header.Get("api-key"))
	}))
	defer srv.Close()

	cli, _ := newTestClient(t, srv)
	done := make(chan error, 32)
	for i := 0; i < 32; i++ {
		go func(n int) {
			key := fmt.Sprintf("key-%d", n)
			ctx := credentials.WithContext(context.Background(), credentials.Credentials{APIKey: key})
			for j := 0; j < 8; j++ {
				workspaces, err := cli.ListWorkspaces(ctx)
				if err != nil {
					done <- err
					return
				}
				if len(workspaces) != 1 || workspaces[0].Name != key {
					done <- fmt.Errorf("caller %d observed %q", n, workspaces[0].Name)
					return
				}
			}
			done <- nil
		}(i)
	}
	for i := 0; i < 32; i++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}
}
