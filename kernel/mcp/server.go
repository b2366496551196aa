// Package mcp exposes a browser as MCP tools so an assistant can page
// through resources the way a user would.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/openziti/rbrowse/kernel/browser"
	"github.com/openziti/rbrowse/kernel/model"
)

const pageURI = "rbrowse://page"

type BrowserMCPServer struct {
	server  *server.MCPServer
	browser *browser.Browser
}

func NewBrowserMCPServer(b *browser.Browser, version string) *BrowserMCPServer {
	srv := server.NewMCPServer(
		"Resource Browser",
		version,
		server.WithResourceCapabilities(true, true),
		server.WithToolCapabilities(true),
	)

	bs := &BrowserMCPServer{
		server:  srv,
		browser: b,
	}

	bs.registerTools()
	bs.registerResources()

	return bs
}

func (bs *BrowserMCPServer) ServeStdio() error {
	return server.ServeStdio(bs.server)
}

func (bs *BrowserMCPServer) registerTools() {
	bs.server.AddTool(mcp.NewTool("list_kinds",
		mcp.WithDescription("List the resource kinds that can be browsed"),
	), bs.listKindsHandler)

	bs.server.AddTool(mcp.NewTool("browse",
		mcp.WithDescription("Switch to a resource kind and show its first page with the default sort"),
		mcp.WithString("kind",
			mcp.Description("Resource kind, e.g. node, windows_desktop, db"),
			mcp.Required(),
		),
	), bs.browseHandler)

	bs.server.AddTool(mcp.NewTool("next_page",
		mcp.WithDescription("Show the next page of the current kind"),
	), bs.nextPageHandler)

	bs.server.AddTool(mcp.NewTool("prev_page",
		mcp.WithDescription("Show the previous page of the current kind"),
	), bs.prevPageHandler)

	bs.server.AddTool(mcp.NewTool("set_sort",
		mcp.WithDescription("Sort the current kind and show the first page"),
		mcp.WithString("sort",
			mcp.Description("Field and direction, e.g. name:asc or hostname:desc"),
			mcp.Required(),
		),
	), bs.setSortHandler)

	bs.server.AddTool(mcp.NewTool("search",
		mcp.WithDescription("Free-text search; replaces any predicate query"),
		mcp.WithString("text",
			mcp.Description("Search terms; empty clears the search"),
		),
	), bs.searchHandler)

	bs.server.AddTool(mcp.NewTool("query",
		mcp.WithDescription("Filter with a predicate query; replaces any search"),
		mcp.WithString("query",
			mcp.Description(`Predicate, e.g. labels["env"] == "prod" && search("web")`),
		),
	), bs.queryHandler)

	bs.server.AddTool(mcp.NewTool("add_label",
		mcp.WithDescription("Narrow the results to resources carrying a label"),
		mcp.WithString("name",
			mcp.Description("Label name"),
			mcp.Required(),
		),
		mcp.WithString("value",
			mcp.Description("Label value"),
			mcp.Required(),
		),
	), bs.addLabelHandler)
}

func (bs *BrowserMCPServer) registerResources() {
	resource := mcp.NewResource(pageURI, "Current Page",
		mcp.WithResourceDescription("The page currently shown by the browser"),
		mcp.WithMIMEType("application/json"),
	)
	bs.server.AddResource(resource, bs.pageHandler)
}

func (bs *BrowserMCPServer) listKindsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]interface{}{"kinds": bs.browser.Kinds()})
}

func (bs *BrowserMCPServer) browseHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind argument is required"), nil
	}
	if err := bs.browser.SetKind(model.ResourceKind(kind)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("unable to browse [%s]: %v", kind, err)), nil
	}
	return bs.pageResult()
}

func (bs *BrowserMCPServer) nextPageHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !bs.browser.Snapshot().CanNext {
		return mcp.NewToolResultError("already on the last page"), nil
	}
	bs.browser.NextPage()
	return bs.pageResult()
}

func (bs *BrowserMCPServer) prevPageHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !bs.browser.Snapshot().CanPrev {
		return mcp.NewToolResultError("already on the first page"), nil
	}
	bs.browser.PrevPage()
	return bs.pageResult()
}

func (bs *BrowserMCPServer) setSortHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("sort")
	if err != nil {
		return mcp.NewToolResultError("sort argument is required"), nil
	}
	sort, err := model.ParseSort(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if snap := bs.browser.Snapshot(); snap.Kind != "" && !snap.Sortable {
		return mcp.NewToolResultError(fmt.Sprintf("kind [%s] cannot be sorted", snap.Kind)), nil
	}
	bs.browser.SetSort(&sort)
	return bs.pageResult()
}

func (bs *BrowserMCPServer) searchHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bs.browser.SetSearch(request.GetString("text", ""))
	return bs.pageResult()
}

func (bs *BrowserMCPServer) queryHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bs.browser.SetQuery(request.GetString("query", ""))
	return bs.pageResult()
}

func (bs *BrowserMCPServer) addLabelHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError("value argument is required"), nil
	}
	bs.browser.AddLabel(model.ResourceLabel{Name: name, Value: value})
	return bs.pageResult()
}

func (bs *BrowserMCPServer) pageHandler(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	bs.browser.Wait()
	data, err := json.Marshal(bs.browser.Snapshot().View())
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      pageURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// pageResult waits for the fetch a tool triggered and returns the page. A
// failed fetch is reported as a tool error carrying the page it retained.
func (bs *BrowserMCPServer) pageResult() (*mcp.CallToolResult, error) {
	bs.browser.Wait()
	view := bs.browser.Snapshot().View()
	if view.State == browser.Failed {
		data, _ := json.Marshal(view)
		return mcp.NewToolResultError(fmt.Sprintf("fetch failed: %s\n%s", view.StatusText, data)), nil
	}
	return jsonResult(view)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
