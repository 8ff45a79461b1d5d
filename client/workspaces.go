package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/stackbyhq/stackby-mcp/api"
)

// ListWorkspaces enumerates the workspaces visible to the caller's key.
func (c *Client) ListWorkspaces(ctx context.Context) ([]api.Workspace, error) {
	var out []api.Workspace
	if err := c.getJSON(ctx, []string{"workspacelist"}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListStacks enumerates the stacks in one workspace.
func (c *Client) ListStacks(ctx context.Context, workspaceID string) ([]api.Stack, error) {
	workspaceID = strings.TrimSpace(workspaceID)
	if workspaceID == "" {
		return nil, fmt.Errorf("stackby: workspaceId is required")
	}
	query := url.Values{"workspaceId": {workspaceID}}
	var out []api.Stack
	if err := c.getJSON(ctx, []string{"stacklist"}, query, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].WorkspaceID == "" {
			out[i].WorkspaceID = workspaceID
		}
	}
	return out, nil
}

// ListAllStacks fans out over every visible workspace and aggregates stacks.
// A workspace that fails to list is skipped so one inaccessible workspace
// does not fail the whole aggregate; the failure is logged and dropped.
func (c *Client) ListAllStacks(ctx context.Context) ([]api.Stack, error) {
	workspaces, err := c.ListWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	stacks := []api.Stack{}
	for _, ws := range workspaces {
		got, err := c.ListStacks(ctx, ws.ID)
		if err != nil {
			c.logWarn("api.stacks.workspace_skipped", "workspace_id", ws.ID, "error", err)
			continue
		}
		stacks = append(stacks, got...)
	}
	return stacks, nil
}
