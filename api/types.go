// Package api declares the wire types exchanged with the Stackby REST API.
//
// Everything here is a transient value shape: fetched, formatted, and
// discarded. Nothing is persisted by this process.
package api

import "encoding/json"

const (
	// MaxRecordsPerCall caps how many rows a single update or delete call may carry.
	MaxRecordsPerCall = 10
	// PersonalAccessTokenPrefix distinguishes long-lived personal access
	// tokens from plain API keys. PAT credentials are additionally sent as a
	// bearer token on outbound requests.
	PersonalAccessTokenPrefix = "pat_"
)

// Workspace is a top-level grouping of stacks, scoped to the authenticated account.
type Workspace struct {
	// ID identifies the workspace.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
}

// Stack is a workspace-scoped container of tables (a "base").
type Stack struct {
	// ID identifies the stack.
	ID string `json:"stackId"`
	// WorkspaceID identifies the owning workspace.
	WorkspaceID string `json:"workspaceId,omitempty"`
	// Name is the stack display name.
	Name string `json:"stackName"`
	// Color is the UI accent color, when the server reports one.
	Color string `json:"color,omitempty"`
	// Icon is the UI icon identifier, when the server reports one.
	Icon string `json:"icon,omitempty"`
	// CreatedAt is the server-side creation timestamp, verbatim.
	CreatedAt string `json:"createdAt,omitempty"`
}

// Table is one table inside a stack.
type Table struct {
	// ID identifies the table.
	ID string `json:"id"`
	// Name is the table display name.
	Name string `json:"name"`
}

// Field is one column of a table. Type is an open string enum; values the
// server reports are never validated client-side.
type Field struct {
	// ID identifies the column.
	ID string `json:"id"`
	// Name is the column display name, also the key used in Record.Field.
	Name string `json:"name"`
	// Type is the column type reported by the server.
	Type string `json:"type"`
	// Key marks the table's key column when set.
	Key bool `json:"key,omitempty"`
	// Label is an optional display label distinct from Name.
	Label string `json:"label,omitempty"`
}

// View is a saved view over a table.
type View struct {
	// ID identifies the view.
	ID string `json:"id"`
	// Name is the view display name.
	Name string `json:"name"`
	// TableID identifies the table the view belongs to.
	TableID string `json:"tableId,omitempty"`
}

// Record is one row. Field maps column name to an opaque value; values are
// forwarded verbatim in both directions and never interpreted here.
type Record struct {
	// ID is the opaque row id.
	ID string `json:"id"`
	// Field maps column name to cell value.
	Field map[string]any `json:"field"`
}

// RecordUpdate addresses one existing row in an update batch.
type RecordUpdate struct {
	// ID is the row to update.
	ID string `json:"id"`
	// Field carries the column values to write, forwarded verbatim.
	Field map[string]any `json:"field"`
}

// CreateRecordsRequest is the payload for row creation.
type CreateRecordsRequest struct {
	// Records holds the rows to create.
	Records []NewRecord `json:"records"`
}

// NewRecord is one row to create.
type NewRecord struct {
	// Field maps column name to cell value, forwarded verbatim.
	Field map[string]any `json:"field"`
}

// UpdateRecordsRequest is the payload for batched row updates.
type UpdateRecordsRequest struct {
	// Records holds the rows to update, at most MaxRecordsPerCall.
	Records []RecordUpdate `json:"records"`
}

// DeleteRecordsRequest is the payload for batched row deletion.
type DeleteRecordsRequest struct {
	// RowIDs lists the rows to delete, at most MaxRecordsPerCall.
	RowIDs []string `json:"rowIds"`
}

// DeletedRecord acknowledges one deleted row.
type DeletedRecord struct {
	// ID is the deleted row id.
	ID string `json:"id"`
	// Deleted reports whether the server removed the row.
	Deleted bool `json:"deleted"`
}

// CreateTableRequest is the payload for table creation.
type CreateTableRequest struct {
	// Name is the new table's display name.
	Name string `json:"name"`
	// Description is optional free text.
	Description string `json:"description,omitempty"`
}

// CreateFieldRequest is the payload for column creation.
type CreateFieldRequest struct {
	// Name is the new column's display name.
	Name string `json:"name"`
	// Type is the column type (open string enum, validated server-side).
	Type string `json:"type"`
	// ViewID anchors the column to a view. Required by the server for most
	// column types; the tool layer resolves the table's first view when the
	// caller leaves it empty.
	ViewID string `json:"viewId,omitempty"`
}

// ErrorResponse is the error envelope the server returns on non-success
// statuses. Both fields are optional; older endpoints return bare strings.
type ErrorResponse struct {
	// Code is the stable error identifier, when provided.
	Code string `json:"error,omitempty"`
	// Message is the human-readable diagnostic, when provided.
	Message string `json:"message,omitempty"`
}

// DataEnvelope models the inconsistent response wrapping: some endpoints
// return {"data": X}, others return X directly. Unwrap in client handles both.
type DataEnvelope struct {
	// Data is the wrapped payload, when the envelope form is used.
	Data json.RawMessage `json:"data,omitempty"`
}
