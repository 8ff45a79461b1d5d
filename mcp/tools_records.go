package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stackbyhq/stackby-mcp/api"
	"github.com/stackbyhq/stackby-mcp/client"
)

type listRecordsInput struct {
	StackID    string `json:"stackId" jsonschema:"Stack containing the table"`
	TableID    string `json:"tableId" jsonschema:"Table whose rows to list"`
	MaxRecords int    `json:"maxRecords,omitempty" jsonschema:"Maximum number of rows to return"`
	Offset     int    `json:"offset,omitempty" jsonschema:"Rows to skip for paging"`
	View       string `json:"view,omitempty" jsonschema:"Optional view to scope the listing"`
}

type listRecordsOutput struct {
	Records []api.Record `json:"records"`
}

func (s *toolServer) handleListRecords(ctx context.Context, _ *mcpsdk.CallToolRequest, input listRecordsInput) (*mcpsdk.CallToolResult, listRecordsOutput, error) {
	records, err := s.upstream.ListRecords(ctx, input.StackID, input.TableID, client.ListRecordsOptions{
		MaxRecords: input.MaxRecords,
		Offset:     input.Offset,
		View:       input.View,
	})
	if err != nil {
		return nil, listRecordsOutput{}, err
	}
	return textResult(recordListSummary(records)), listRecordsOutput{Records: records}, nil
}

type searchRecordsInput struct {
	StackID string `json:"stackId" jsonschema:"Stack containing the table"`
	TableID string `json:"tableId" jsonschema:"Table to search"`
	Value   string `json:"value" jsonschema:"Value to match"`
	Column  string `json:"column,omitempty" jsonschema:"Column to match against; omit to use the table's first column"`
}

type searchRecordsOutput struct {
	Records []api.Record `json:"records"`
}

func (s *toolServer) handleSearchRecords(ctx context.Context, _ *mcpsdk.CallToolRequest, input searchRecordsInput) (*mcpsdk.CallToolResult, searchRecordsOutput, error) {
	records, err := s.upstream.SearchRecords(ctx, input.StackID, input.TableID, input.Value, input.Column)
	if err != nil {
		return nil, searchRecordsOutput{}, err
	}
	return textResult(recordListSummary(records)), searchRecordsOutput{Records: records}, nil
}

type getRecordInput struct {
	StackID string `json:"stackId" jsonschema:"Stack containing the table"`
	TableID string `json:"tableId" jsonschema:"Table containing the row"`
	RowID   string `json:"rowId" jsonschema:"Row id to fetch"`
}

type getRecordOutput struct {
	Record *api.Record `json:"record"`
}

func (s *toolServer) handleGetRecord(ctx context.Context, _ *mcpsdk.CallToolRequest, input getRecordInput) (*mcpsdk.CallToolResult, getRecordOutput, error) {
	record, err := s.upstream.GetRecord(ctx, input.StackID, input.TableID, input.RowID)
	if err != nil {
		return nil, getRecordOutput{}, err
	}
	return textResult(recordDump(record)), getRecordOutput{Record: record}, nil
}

type createRecordInput struct {
	StackID string         `json:"stackId" jsonschema:"Stack containing the table"`
	TableID string         `json:"tableId" jsonschema:"Table to create the row in"`
	Fields  map[string]any `json:"fields" jsonschema:"Column name to value map, forwarded verbatim"`
}

type createRecordOutput struct {
	Record *api.Record `json:"record"`
}

func (s *toolServer) handleCreateRecord(ctx context.Context, _ *mcpsdk.CallToolRequest, input createRecordInput) (*mcpsdk.CallToolResult, createRecordOutput, error) {
	record, err := s.upstream.CreateRecord(ctx, input.StackID, input.TableID, input.Fields)
	if err != nil {
		return nil, createRecordOutput{}, err
	}
	summary := "created " + recordDump(record)
	return textResult(summary), createRecordOutput{Record: record}, nil
}

type updateRecordsInput struct {
	StackID string             `json:"stackId" jsonschema:"Stack containing the table"`
	TableID string             `json:"tableId" jsonschema:"Table containing the rows"`
	Records []api.RecordUpdate `json:"records" jsonschema:"1-10 rows, each with id and a field map"`
}

type updateRecordsOutput struct {
	Records []api.Record `json:"records"`
}

func (s *toolServer) handleUpdateRecords(ctx context.Context, _ *mcpsdk.CallToolRequest, input updateRecordsInput) (*mcpsdk.CallToolResult, updateRecordsOutput, error) {
	records, err := s.upstream.UpdateRecords(ctx, input.StackID, input.TableID, input.Records)
	if err != nil {
		return nil, updateRecordsOutput{}, err
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	summary := fmt.Sprintf("updated %d records: %s", len(records), strings.Join(ids, ", "))
	return textResult(summary), updateRecordsOutput{Records: records}, nil
}

type deleteRecordsInput struct {
	StackID string   `json:"stackId" jsonschema:"Stack containing the table"`
	TableID string   `json:"tableId" jsonschema:"Table containing the rows"`
	RowIDs  []string `json:"rowIds" jsonschema:"1-10 row ids to delete"`
}

type deleteRecordsOutput struct {
	Deleted []api.DeletedRecord `json:"deleted"`
}

func (s *toolServer) handleDeleteRecords(ctx context.Context, _ *mcpsdk.CallToolRequest, input deleteRecordsInput) (*mcpsdk.CallToolResult, deleteRecordsOutput, error) {
	deleted, err := s.upstream.DeleteRecords(ctx, input.StackID, input.TableID, input.RowIDs)
	if err != nil {
		return nil, deleteRecordsOutput{}, err
	}
	ids := make([]string, 0, len(deleted))
	for _, d := range deleted {
		ids = append(ids, d.ID)
	}
	summary := fmt.Sprintf("deleted %d records: %s", len(deleted), strings.Join(ids, ", "))
	return textResult(summary), deleteRecordsOutput{Deleted: deleted}, nil
}

func recordListSummary(records []api.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d records\n", len(records))
	for _, rec := range records {
		b.WriteString("- " + recordLine(rec) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
