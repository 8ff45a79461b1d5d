package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stackbyhq/stackby-mcp/api"
)

type listTablesInput struct {
	StackID string `json:"stackId" jsonschema:"Stack whose tables to list"`
}

type listTablesOutput struct {
	Tables []api.Table `json:"tables"`
}

func (s *toolServer) handleListTables(ctx context.Context, _ *mcpsdk.CallToolRequest, input listTablesInput) (*mcpsdk.CallToolResult, listTablesOutput, error) {
	tables, err := s.upstream.ListTables(ctx, input.StackID)
	if err != nil {
		return nil, listTablesOutput{}, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d tables\n", len(tables))
	for _, tbl := range tables {
		fmt.Fprintf(&b, "- %s (%s)\n", tbl.Name, tbl.ID)
	}
	return textResult(strings.TrimRight(b.String(), "\n")), listTablesOutput{Tables: tables}, nil
}

type describeTableInput struct {
	StackID string `json:"stackId" jsonschema:"Stack containing the table"`
	TableID string `json:"tableId" jsonschema:"Table to describe"`
}

type describeTableOutput struct {
	Table  *api.Table  `json:"table,omitempty"`
	Fields []api.Field `json:"fields"`
	Views  []api.View  `json:"views"`
}

func (s *toolServer) handleDescribeTable(ctx context.Context, _ *mcpsdk.CallToolRequest, input describeTableInput) (*mcpsdk.CallToolResult, describeTableOutput, error) {
	tables, err := s.upstream.ListTables(ctx, input.StackID)
	if err != nil {
		return nil, describeTableOutput{}, err
	}
	tableID := strings.TrimSpace(input.TableID)
	var table *api.Table
	for i := range tables {
		if tables[i].ID == tableID {
			table = &tables[i]
			break
		}
	}
	fields, err := s.upstream.ListFields(ctx, input.StackID, input.TableID)
	if err != nil {
		return nil, describeTableOutput{}, err
	}
	views, err := s.upstream.ListViews(ctx, input.StackID, input.TableID)
	if err != nil {
		return nil, describeTableOutput{}, err
	}

	var b strings.Builder
	if table != nil {
		fmt.Fprintf(&b, "table %s (%s)\n", table.Name, table.ID)
	} else {
		fmt.Fprintf(&b, "table %s\n", tableID)
	}
	fmt.Fprintf(&b, "columns (%d):\n", len(fields))
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s (%s)\n", f.Name, f.Type)
	}
	fmt.Fprintf(&b, "views (%d):\n", len(views))
	for _, v := range views {
		fmt.Fprintf(&b, "- %s (%s)\n", v.Name, v.ID)
	}
	return textResult(strings.TrimRight(b.String(), "\n")), describeTableOutput{Table: table, Fields: fields, Views: views}, nil
}

type createTableInput struct {
	StackID     string `json:"stackId" jsonschema:"Stack to create the table in"`
	Name        string `json:"name" jsonschema:"New table name"`
	Description string `json:"description,omitempty" jsonschema:"Optional table description"`
}

type createTableOutput struct {
	Table *api.Table `json:"table"`
}

func (s *toolServer) handleCreateTable(ctx context.Context, _ *mcpsdk.CallToolRequest, input createTableInput) (*mcpsdk.CallToolResult, createTableOutput, error) {
	table, err := s.upstream.CreateTable(ctx, input.StackID, api.CreateTableRequest{
		Name:        input.Name,
		Description: input.Description,
	})
	if err != nil {
		return nil, createTableOutput{}, err
	}
	summary := fmt.Sprintf("created table %s (%s)", table.Name, table.ID)
	return textResult(summary), createTableOutput{Table: table}, nil
}

type createFieldInput struct {
	StackID string `json:"stackId" jsonschema:"Stack containing the table"`
	TableID string `json:"tableId" jsonschema:"Table to add the column to"`
	Name    string `json:"name" jsonschema:"New column name"`
	Type    string `json:"type" jsonschema:"Column type, e.g. text, number, checkbox"`
	ViewID  string `json:"viewId,omitempty" jsonschema:"View to anchor the column to; omit to use the table's first view"`
}

type createFieldOutput struct {
	Field *api.Field `json:"field"`
}

func (s *toolServer) handleCreateField(ctx context.Context, _ *mcpsdk.CallToolRequest, input createFieldInput) (*mcpsdk.CallToolResult, createFieldOutput, error) {
	viewID := strings.TrimSpace(input.ViewID)
	if viewID == "" {
		// The server anchors new columns to a view; default to the first one.
		views, err := s.upstream.ListViews(ctx, input.StackID, input.TableID)
		if err != nil {
			return nil, createFieldOutput{}, err
		}
		if len(views) == 0 {
			return nil, createFieldOutput{}, fmt.Errorf("table has no views; viewId is required")
		}
		viewID = views[0].ID
	}
	field, err := s.upstream.CreateField(ctx, input.StackID, input.TableID, api.CreateFieldRequest{
		Name:   input.Name,
		Type:   input.Type,
		ViewID: viewID,
	})
	if err != nil {
		return nil, createFieldOutput{}, err
	}
	summary := fmt.Sprintf("created column %s (%s) type=%s", field.Name, field.ID, field.Type)
	return textResult(summary), createFieldOutput{Field: field}, nil
}
