package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/stackbyhq/stackby-mcp/api"
)

// ListRecordsOptions tunes row listing.
type ListRecordsOptions struct {
	// MaxRecords caps the result size; zero leaves paging to the server.
	MaxRecords int
	// Offset skips rows for paging.
	Offset int
	// View scopes the listing to a saved view.
	View string
}

// ListRecords enumerates rows of a table.
func (c *Client) ListRecords(ctx context.Context, stackID, tableID string, opts ListRecordsOptions) ([]api.Record, error) {
	stackID, tableID, err := requireStackTable(stackID, tableID)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	if opts.MaxRecords > 0 {
		query.Set("maxrecord", strconv.Itoa(opts.MaxRecords))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}
	if view := strings.TrimSpace(opts.View); view != "" {
		query.Set("view", view)
	}
	var out []api.Record
	if err := c.getJSON(ctx, []string{"rowlist", stackID, tableID}, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchRecords finds rows whose column matches value. An empty column is
// resolved to the table's first column; a table with no columns yields an
// empty match set without calling the search endpoint.
func (c *Client) SearchRecords(ctx context.Context, stackID, tableID, value, column string) ([]api.Record, error) {
	stackID, tableID, err := requireStackTable(stackID, tableID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("stackby: search value is required")
	}
	column = strings.TrimSpace(column)
	if column == "" {
		fields, err := c.ListFields(ctx, stackID, tableID)
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			return []api.Record{}, nil
		}
		column = fields[0].Name
	}
	query := url.Values{"column": {column}, "value": {value}}
	var out []api.Record
	if err := c.getJSON(ctx, []string{"rowsearch", stackID, tableID}, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRecord fetches a single row by id.
func (c *Client) GetRecord(ctx context.Context, stackID, tableID, rowID string) (*api.Record, error) {
	stackID, tableID, err := requireStackTable(stackID, tableID)
	if err != nil {
		return nil, err
	}
	rowID = strings.TrimSpace(rowID)
	if rowID == "" {
		return nil, fmt.Errorf("stackby: rowId is required")
	}
	var out api.Record
	if err := c.getJSON(ctx, []string{"row", stackID, tableID, rowID}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRecord creates one row. The field map is forwarded verbatim; invalid
// column names surface only as remote errors.
func (c *Client) CreateRecord(ctx context.Context, stackID, tableID string, field map[string]any) (*api.Record, error) {
	stackID, tableID, err := requireStackTable(stackID, tableID)
	if err != nil {
		return nil, err
	}
	if len(field) == 0 {
		return nil, fmt.Errorf("stackby: field map is required")
	}
	payload := api.CreateRecordsRequest{Records: []api.NewRecord{{Field: field}}}
	records, err := c.recordsCall(ctx, http.MethodPost, []string{"rowcreate", stackID, tableID}, payload)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("stackby: create returned no record")
	}
	return &records[0], nil
}

// UpdateRecords updates 1 to api.MaxRecordsPerCall rows in one call. The
// bound is enforced before any network I/O.
func (c *Client) UpdateRecords(ctx context.Context, stackID, tableID string, updates []api.RecordUpdate) ([]api.Record, error) {
	stackID, tableID, err := requireStackTable(stackID, tableID)
	if err != nil {
		return nil, err
	}
	if err := checkBatchSize(len(updates)); err != nil {
		return nil, err
	}
	for i, u := range updates {
		if strings.TrimSpace(u.ID) == "" {
			return nil, fmt.Errorf("stackby: record %d is missing id", i)
		}
	}
	payload := api.UpdateRecordsRequest{Records: updates}
	return c.recordsCall(ctx, http.MethodPatch, []string{"rowupdate", stackID, tableID}, payload)
}

// DeleteRecords deletes 1 to api.MaxRecordsPerCall rows in one call. The
// bound is enforced before any network I/O.
func (c *Client) DeleteRecords(ctx context.Context, stackID, tableID string, rowIDs []string) ([]api.DeletedRecord, error) {
	stackID, tableID, err := requireStackTable(stackID, tableID)
	if err != nil {
		return nil, err
	}
	if err := checkBatchSize(len(rowIDs)); err != nil {
		return nil, err
	}
	for i, id := range rowIDs {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("stackby: row id %d is empty", i)
		}
	}
	payload := api.DeleteRecordsRequest{RowIDs: rowIDs}
	var out []api.DeletedRecord
	if err := c.do(ctx, http.MethodDelete, []string{"rowdelete", stackID, tableID}, nil, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// recordsCall handles mutation endpoints that return either a record array
// or a single record object.
func (c *Client) recordsCall(ctx context.Context, method string, segments []string, payload any) ([]api.Record, error) {
	var raw json.RawMessage
	if err := c.do(ctx, method, segments, nil, payload, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var records []api.Record
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}
	var single api.Record
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("stackby: decode records response: %w", err)
	}
	return []api.Record{single}, nil
}

func checkBatchSize(n int) error {
	if n == 0 {
		return fmt.Errorf("stackby: at least one record is required")
	}
	if n > api.MaxRecordsPerCall {
		return fmt.Errorf("stackby: at most %d records per call, got %d", api.MaxRecordsPerCall, n)
	}
	return nil
}
