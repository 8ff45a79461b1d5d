package mcp

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stackbyhq/stackby-mcp/api"
	"github.com/stackbyhq/stackby-mcp/client"
	"github.com/stackbyhq/stackby-mcp/internal/version"
	"pkt.systems/pslog"
)

const serverInstructions = "Tools for reading and writing Stackby tabular data. " +
	"Start with list_workspaces and list_stacks to discover stackIds, then list_tables " +
	"and describe_table before touching rows. update_records and delete_records accept " +
	"at most 10 rows per call."

type toolMetrics struct {
	calls *prometheus.CounterVec
}

func newToolMetrics(reg prometheus.Registerer) *toolMetrics {
	m := &toolMetrics{}
	if reg == nil {
		return m
	}
	m.calls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stackby_mcp",
		Name:      "tool_calls_total",
		Help:      "Tool invocations by tool name and outcome.",
	}, []string{"tool", "outcome"})
	reg.MustRegister(m.calls)
	return m
}

func (m *toolMetrics) observe(tool, outcome string) {
	if m == nil || m.calls == nil {
		return
	}
	m.calls.WithLabelValues(tool, outcome).Inc()
}

// toolServer owns the registry shared by both transports.
type toolServer struct {
	upstream *client.Client
	logger   pslog.Logger
	metrics  *toolMetrics
}

func newToolServer(upstream *client.Client, logger pslog.Logger, metrics *toolMetrics) *toolServer {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	if metrics == nil {
		metrics = &toolMetrics{}
	}
	return &toolServer{upstream: upstream, logger: logger, metrics: metrics}
}

func (s *toolServer) buildServer() *mcpsdk.Server {
	srv := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "stackby-mcp",
		Version: version.Current(),
	}, &mcpsdk.ServerOptions{
		Instructions: serverInstructions,
	})
	s.registerTools(srv)
	return srv
}

func (s *toolServer) registerTools(srv *mcpsdk.Server) {
	desc := func(name string) string {
		description, ok := toolDescriptions[name]
		if !ok {
			panic(fmt.Sprintf("missing tool description for %q", name))
		}
		return description
	}

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolListWorkspaces,
		Description: desc(toolListWorkspaces),
	}, withToolErrors(toolListWorkspaces, s.metrics, s.handleListWorkspaces))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolListStacks,
		Description: desc(toolListStacks),
	}, withToolErrors(toolListStacks, s.metrics, s.handleListStacks))

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolListTables,
		Description: desc(toolListTables),
	}, withToolErrors(toolListTables, s.metrics, s.handleListTables))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolDescribeTable,
		Description: desc(toolDescribeTable),
	}, withToolErrors(toolDescribeTable, s.metrics, s.handleDescribeTable))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolCreateTable,
		Description: desc(toolCreateTable),
	}, withToolErrors(toolCreateTable, s.metrics, s.handleCreateTable))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolCreateField,
		Description: desc(toolCreateField),
	}, withToolErrors(toolCreateField, s.metrics, s.handleCreateField))

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolListRecords,
		Description: desc(toolListRecords),
	}, withToolErrors(toolListRecords, s.metrics, s.handleListRecords))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolSearchRecords,
		Description: desc(toolSearchRecords),
	}, withToolErrors(toolSearchRecords, s.metrics, s.handleSearchRecords))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolGetRecord,
		Description: desc(toolGetRecord),
	}, withToolErrors(toolGetRecord, s.metrics, s.handleGetRecord))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolCreateRecord,
		Description: desc(toolCreateRecord),
	}, withToolErrors(toolCreateRecord, s.metrics, s.handleCreateRecord))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolUpdateRecords,
		Description: desc(toolUpdateRecords),
	}, withToolErrors(toolUpdateRecords, s.metrics, s.handleUpdateRecords))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolDeleteRecords,
		Description: desc(toolDeleteRecords),
	}, withToolErrors(toolDeleteRecords, s.metrics, s.handleDeleteRecords))
}

func textResult(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
	}
}

// recordLine renders one row as "id: {compact field json}".
func recordLine(rec api.Record) string {
	return rec.ID + ": " + compactFields(rec.Field)
}

func compactFields(field map[string]any) string {
	encoded, err := json.Marshal(field)
	if err != nil {
		return fmt.Sprintf("%v", field)
	}
	return string(encoded)
}

// recordDump renders a single row with one "name: value" line per column,
// columns sorted for stable output.
func recordDump(rec *api.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "record %s\n", rec.ID)
	names := make([]string, 0, len(rec.Field))
	for name := range rec.Field {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value, err := json.Marshal(rec.Field[name])
		if err != nil {
			fmt.Fprintf(&b, "  %s: %v\n", name, rec.Field[name])
			continue
		}
		fmt.Fprintf(&b, "  %s: %s\n", name, value)
	}
	return strings.TrimRight(b.String(), "\n")
}
