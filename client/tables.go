package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/stackbyhq/stackby-mcp/api"
)

// ListTables enumerates the tables of a stack.
func (c *Client) ListTables(ctx context.Context, stackID string) ([]api.Table, error) {
	stackID = strings.TrimSpace(stackID)
	if stackID == "" {
		return nil, fmt.Errorf("stackby: stackId is required")
	}
	var out []api.Table
	if err := c.getJSON(ctx, []string{"tablelist", stackID}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListFields enumerates the columns of a table.
func (c *Client) ListFields(ctx context.Context, stackID, tableID string) ([]api.Field, error) {
	stackID, tableID, err := requireStackTable(stackID, tableID)
	if err != nil {
		return nil, err
	}
	var out []api.Field
	if err := c.getJSON(ctx, []string{"columnlist", stackID, tableID}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListViews enumerates the views of a table.
func (c *Client) ListViews(ctx context.Context, stackID, tableID string) ([]api.View, error) {
	stackID, tableID, err := requireStackTable(stackID, tableID)
	if err != nil {
		return nil, err
	}
	var out []api.View
	if err := c.getJSON(ctx, []string{"viewlist", stackID, tableID}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTable creates a table in a stack.
func (c *Client) CreateTable(ctx context.Context, stackID string, req api.CreateTableRequest) (*api.Table, error) {
	stackID = strings.TrimSpace(stackID)
	if stackID == "" {
		return nil, fmt.Errorf("stackby: stackId is required")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("stackby: table name is required")
	}
	var out api.Table
	if err := c.do(ctx, "POST", []string{"tablecreate", stackID}, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateField creates a column on a table. The server requires a view anchor
// for most column types; resolving a default view is the tool layer's job,
// so a request that needs one and lacks it fails remotely.
func (c *Client) CreateField(ctx context.Context, stackID, tableID string, req api.CreateFieldRequest) (*api.Field, error) {
	stackID, tableID, err := requireStackTable(stackID, tableID)
	if err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Type = strings.TrimSpace(req.Type)
	req.ViewID = strings.TrimSpace(req.ViewID)
	if req.Name == "" {
		return nil, fmt.Errorf("stackby: column name is required")
	}
	if req.Type == "" {
		return nil, fmt.Errorf("stackby: column type is required")
	}
	var out api.Field
	if err := c.do(ctx, "POST", []string{"columncreate", stackID, tableID}, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func requireStackTable(stackID, tableID string) (string, string, error) {
	stackID = strings.TrimSpace(stackID)
	tableID = strings.TrimSpace(tableID)
	if stackID == "" {
		return "", "", fmt.Errorf("stackby: stackId is required")
	}
	if tableID == "" {
		return "", "", fmt.Errorf("stackby: tableId is required")
	}
	return stackID, tableID, nil
}
