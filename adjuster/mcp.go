package adjuster

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/readstyle/kit"
	"github.com/hazyhaar/readstyle/message"
)

// RegisterMCP registers the readstyle tools on an MCP server.
func (a *Adjuster) RegisterMCP(srv *mcp.Server) {
	a.registerResolveTool(srv)
	a.registerDispatchTool(srv)
	a.registerAnalyzeTool(srv)
}

// toolLogging logs every call of tool at debug level, failures at warn.
func (a *Adjuster) toolLogging(tool string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			if err != nil {
				a.logger.WarnContext(ctx, "adjuster: mcp tool failed", "tool", tool, "error", err)
				return resp, err
			}
			a.logger.DebugContext(ctx, "adjuster: mcp tool", "tool", tool, "duration", time.Since(start))
			return resp, nil
		}
	}
}

// --- resolve ---

type resolveReq struct {
	URL string `json:"url"`
}

func (a *Adjuster) registerResolveTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "readstyle_resolve",
		Description: "Resolve the reading-style settings that apply to a URL. Returns the winning tier (exception, site, active), the profile name and the settings, or null settings for excepted sites.",
		InputSchema: kit.InputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Page URL"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*resolveReq)
		if r.URL == "" {
			return nil, errors.New("url is required")
		}
		return a.Decide(ctx, r.URL), nil
	}

	kit.RegisterMCPTool(srv, tool, a.toolLogging(tool.Name)(endpoint), kit.DecodeArgs[resolveReq])
}

// --- dispatch ---

func (a *Adjuster) registerDispatchTool(srv *mcp.Server) {
	types := make([]string, len(message.Types))
	for i, t := range message.Types {
		types[i] = string(t)
	}
	tool := &mcp.Tool{
		Name:        "readstyle_dispatch",
		Description: "Send one message to the reading-style service (profiles, site exceptions, site profiles, import/export, styles) and return its response envelope.",
		InputSchema: kit.InputSchema(map[string]any{
			"type":         map[string]any{"type": "string", "enum": types},
			"url":          map[string]any{"type": "string"},
			"settings":     map[string]any{"type": "object"},
			"profile":      map[string]any{"type": "object"},
			"profileName":  map[string]any{"type": "string"},
			"newName":      map[string]any{"type": "string"},
			"domain":       map[string]any{"type": "string"},
			"settingsJson": map[string]any{"type": "string"},
			"html":         map[string]any{"type": "string"},
			"create":       map[string]any{"type": "boolean", "description": "SAVE_PROFILE and SET_SITE_PROFILE: refuse to replace an existing entry"},
		}, []string{"type"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		return a.Dispatch(ctx, *req.(*message.Request)), nil
	}

	kit.RegisterMCPTool(srv, tool, a.toolLogging(tool.Name)(endpoint), kit.DecodeArgs[message.Request])
}

// --- analyze ---

type analyzeReq struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

func (a *Adjuster) registerAnalyzeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "readstyle_analyze",
		Description: "Find the text elements and the main content element of a page. Pass html to analyse markup directly, or only url to render the page in the browser when rendering is enabled.",
		InputSchema: kit.InputSchema(map[string]any{
			"url":  map[string]any{"type": "string", "description": "Page URL, used for the domain and excerpt links"},
			"html": map[string]any{"type": "string", "description": "Page markup"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*analyzeReq)
		return a.PageInfo(ctx, r.URL, r.HTML)
	}

	kit.RegisterMCPTool(srv, tool, a.toolLogging(tool.Name)(endpoint), kit.DecodeArgs[analyzeReq])
}
