package mcp

const (
	toolListWorkspaces = "list_workspaces"
	toolListStacks     = "list_stacks"
	toolListTables     = "list_tables"
	toolDescribeTable  = "describe_table"
	toolListRecords    = "list_records"
	toolSearchRecords  = "search_records"
	toolGetRecord      = "get_record"
	toolCreateRecord   = "create_record"
	toolUpdateRecords  = "update_records"
	toolDeleteRecords  = "delete_records"
	toolCreateTable    = "create_table"
	toolCreateField    = "create_field"
)

var toolDescriptions = map[string]string{
	toolListWorkspaces: "List all Stackby workspaces visible to the caller's API key.",
	toolListStacks:     "List stacks (bases). Scope to one workspace with workspaceId, or omit it to aggregate stacks across every visible workspace.",
	toolListTables:     "List the tables of a stack.",
	toolDescribeTable:  "Describe one table: its columns (name, type) and views.",
	toolListRecords:    "List rows of a table. Supports maxRecords, offset, and an optional view scope.",
	toolSearchRecords:  "Search rows of a table by column value. When column is omitted the table's first column is used.",
	toolGetRecord:      "Fetch a single row by its id.",
	toolCreateRecord:   "Create one row. fields maps column names to values and is forwarded verbatim; unknown column names fail on the server.",
	toolUpdateRecords:  "Update 1-10 rows in one call. Each record needs an id and a fields map, forwarded verbatim.",
	toolDeleteRecords:  "Delete 1-10 rows by id in one call.",
	toolCreateTable:    "Create a table in a stack.",
	toolCreateField:    "Create a column on a table. When viewId is omitted the table's first view is used.",
}

// toolHints are appended to error diagnostics so the assistant can steer the
// caller toward the usual cause.
var toolHints = map[string]string{
	toolListStacks:    "check workspaceId",
	toolListTables:    "check stackId",
	toolDescribeTable: "check stackId and tableId",
	toolListRecords:   "check stackId and tableId",
	toolSearchRecords: "check stackId, tableId, and the column name",
	toolGetRecord:     "check stackId, tableId, and rowId",
	toolCreateRecord:  "check stackId, tableId, and that fields uses existing column names",
	toolUpdateRecords: "check stackId, tableId, and the record ids",
	toolDeleteRecords: "check stackId, tableId, and the record ids",
	toolCreateTable:   "check stackId",
	toolCreateField:   "check stackId, tableId, and the column type",
}
