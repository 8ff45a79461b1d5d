package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stackbyhq/stackby-mcp/api"
)

type listWorkspacesInput struct{}

type listWorkspacesOutput struct {
	Workspaces []api.Workspace `json:"workspaces"`
}

func (s *toolServer) handleListWorkspaces(ctx context.Context, _ *mcpsdk.CallToolRequest, _ listWorkspacesInput) (*mcpsdk.CallToolResult, listWorkspacesOutput, error) {
	workspaces, err := s.upstream.ListWorkspaces(ctx)
	if err != nil {
		return nil, listWorkspacesOutput{}, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d workspaces\n", len(workspaces))
	for _, ws := range workspaces {
		fmt.Fprintf(&b, "- %s (%s)\n", ws.Name, ws.ID)
	}
	return textResult(strings.TrimRight(b.String(), "\n")), listWorkspacesOutput{Workspaces: workspaces}, nil
}

type listStacksInput struct {
	WorkspaceID string `json:"workspaceId,omitempty" jsonschema:"Workspace to list; omit to aggregate across all visible workspaces"`
}

type listStacksOutput struct {
	Stacks []api.Stack `json:"stacks"`
}

func (s *toolServer) handleListStacks(ctx context.Context, _ *mcpsdk.CallToolRequest, input listStacksInput) (*mcpsdk.CallToolResult, listStacksOutput, error) {
	var (
		stacks []api.Stack
		err    error
	)
	if workspaceID := strings.TrimSpace(input.WorkspaceID); workspaceID != "" {
		stacks, err = s.upstream.ListStacks(ctx, workspaceID)
	} else {
		stacks, err = s.upstream.ListAllStacks(ctx)
	}
	if err != nil {
		return nil, listStacksOutput{}, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d stacks\n", len(stacks))
	for _, st := range stacks {
		fmt.Fprintf(&b, "- %s (%s) workspace=%s\n", st.Name, st.ID, st.WorkspaceID)
	}
	return textResult(strings.TrimRight(b.String(), "\n")), listStacksOutput{Stacks: stacks}, nil
}
