package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openziti/rbrowse/kernel/browser"
	"github.com/openziti/rbrowse/kernel/kinds"
	"github.com/openziti/rbrowse/kernel/model"
	"github.com/openziti/rbrowse/kernel/store"
)

func newTestServer(t *testing.T) *BrowserMCPServer {
	t.Helper()
	backend := store.NewMemoryStore()
	for i := 0; i < 7; i++ {
		env := "dev"
		if i == 3 {
			env = "prod"
		}
		_, err := backend.Upsert(context.Background(), "root", model.Resource{
			Kind:   model.KindNode,
			Name:   fmt.Sprintf("node-%d", i),
			Labels: map[string]string{"env": env},
			Attrs:  map[string]string{"hostname": fmt.Sprintf("host-%d", i)},
		})
		if err != nil {
			t.Fatalf("seeding failed: %v", err)
		}
	}
	registry, err := kinds.NewRegistryForLister(backend)
	if err != nil {
		t.Fatalf("registry failed: %v", err)
	}
	b, err := browser.New(browser.Config{
		Context:  model.NewContext("root", &model.BrowserConfig{PageSize: 5}),
		Registry: registry,
	})
	if err != nil {
		t.Fatalf("browser failed: %v", err)
	}
	t.Cleanup(b.Close)
	return NewBrowserMCPServer(b, "test")
}

func callTool(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func decodeView(t *testing.T, result *mcp.CallToolResult) browser.PageView {
	t.Helper()
	var view browser.PageView
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &view); err != nil {
		t.Fatalf("failed to decode page: %v", err)
	}
	return view
}

func TestNewBrowserMCPServer(t *testing.T) {
	server := newTestServer(t)

	if server == nil {
		t.Fatal("expected server to be created")
	}
	if server.browser == nil {
		t.Error("expected browser to be set")
	}
}

func TestListKindsHandler(t *testing.T) {
	server := newTestServer(t)

	result, err := server.listKindsHandler(context.Background(), callTool(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var response map[string][]string
	json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &response)

	if len(response["kinds"]) != len(kinds.BuiltinKinds()) {
		t.Errorf("expected %d kinds, got %v", len(kinds.BuiltinKinds()), response["kinds"])
	}
}

func TestBrowseAndPage(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	result, err := server.browseHandler(ctx, callTool(map[string]any{"kind": "node"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view := decodeView(t, result)
	if len(view.Rows) != 5 || !view.CanNext || view.CanPrev {
		t.Fatalf("unexpected first page: %+v", view)
	}
	if view.Indicators.Total != 7 {
		t.Errorf("expected total 7, got %d", view.Indicators.Total)
	}

	result, _ = server.nextPageHandler(ctx, callTool(nil))
	view = decodeView(t, result)
	if len(view.Rows) != 2 || view.Indicators.From != 6 {
		t.Errorf("unexpected second page: %+v", view.Indicators)
	}

	result, _ = server.nextPageHandler(ctx, callTool(nil))
	if !result.IsError {
		t.Error("expected error result past the last page")
	}

	result, _ = server.prevPageHandler(ctx, callTool(nil))
	view = decodeView(t, result)
	if view.Rows[0].Key != "node/node-0" {
		t.Errorf("expected to return to the first page, got %s", view.Rows[0].Key)
	}
}

func TestBrowseHandler_UnknownKind(t *testing.T) {
	server := newTestServer(t)

	result, err := server.browseHandler(context.Background(), callTool(map[string]any{"kind": "teapot"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for unknown kind")
	}
}

func TestBrowseHandler_MissingKind(t *testing.T) {
	server := newTestServer(t)

	result, _ := server.browseHandler(context.Background(), callTool(map[string]any{}))
	if !result.IsError {
		t.Error("expected error result without kind")
	}
}

func TestAddLabelHandler(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	server.browseHandler(ctx, callTool(map[string]any{"kind": "node"}))

	result, err := server.addLabelHandler(ctx, callTool(map[string]any{"name": "env", "value": "prod"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view := decodeView(t, result)
	if view.Query != `labels["env"] == "prod"` {
		t.Errorf("unexpected query: %s", view.Query)
	}
	if len(view.Rows) != 1 || view.Rows[0].Key != "node/node-3" {
		t.Errorf("expected only node-3, got %+v", view.Rows)
	}
}

func TestSetSortHandler(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	server.browseHandler(ctx, callTool(map[string]any{"kind": "node"}))

	result, _ := server.setSortHandler(ctx, callTool(map[string]any{"sort": "hostname:desc"}))
	view := decodeView(t, result)
	if view.Rows[0].Key != "node/node-6" {
		t.Errorf("expected node-6 first, got %s", view.Rows[0].Key)
	}

	result, _ = server.setSortHandler(ctx, callTool(map[string]any{"sort": "hostname:sideways"}))
	if !result.IsError {
		t.Error("expected error result for invalid sort")
	}
}

func TestSetSortHandler_UnsortableKind(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	server.browseHandler(ctx, callTool(map[string]any{"kind": "ec2_instance"}))

	result, _ := server.setSortHandler(ctx, callTool(map[string]any{"sort": "name:desc"}))
	if !result.IsError {
		t.Error("expected error result for unsortable kind")
	}
}

func TestQueryHandler_InvalidQueryFails(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	server.browseHandler(ctx, callTool(map[string]any{"kind": "node"}))

	result, _ := server.queryHandler(ctx, callTool(map[string]any{"query": `labels[`}))
	if !result.IsError {
		t.Error("expected error result for invalid query")
	}

	result, _ = server.searchHandler(ctx, callTool(map[string]any{"text": "host-2"}))
	view := decodeView(t, result)
	if view.Query != "" || len(view.Rows) != 1 {
		t.Errorf("expected search to replace query, got %+v", view)
	}
}

func TestPageResource(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	server.browseHandler(ctx, callTool(map[string]any{"kind": "node"}))

	contents, err := server.pageHandler(ctx, mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	var view browser.PageView
	if err := json.Unmarshal([]byte(text), &view); err != nil {
		t.Fatalf("failed to decode resource: %v", err)
	}
	if view.Kind != model.KindNode {
		t.Errorf("expected node page, got %s", view.Kind)
	}
}
