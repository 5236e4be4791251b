package ocr

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/svretina/nougat-mcp/kit"
	"github.com/svretina/nougat-mcp/settings"
)

// RegisterMCP registers the OCR tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerParseTool(srv)
	p.registerSettingsTool(srv)
	p.registerPreflightTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func (p *Pipeline) logged(tool string, endpoint kit.Endpoint) kit.Endpoint {
	return kit.Chain(kit.Logging(p.logger, tool))(endpoint)
}

// --- parse_research_paper ---

type parseReq struct {
	Path         string `json:"path"`
	OutputFormat string `json:"output_format"`
}

func (p *Pipeline) registerParseTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name: "parse_research_paper",
		Description: "Highly accurate OCR for academic papers and scientific PDFs using Meta's Nougat model. " +
			"Converts visual structures like tables, formulas, and multi-column layouts into clean Markdown.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Absolute path to the PDF file on the local system",
			},
			"output_format": map[string]any{
				"type": "string",
				"enum": []string{"default", "mmd", "md"},
				"description": "'default' uses the settings file preference, 'mmd' returns raw Nougat output, " +
					"'md' rewrites math delimiters for broader Markdown renderer compatibility",
			},
		}, []string{"path"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*parseReq)
		format, err := ParseFormat(r.OutputFormat)
		if err != nil {
			return nil, err
		}
		result, err := p.Parse(ctx, r.Path, format)
		if err != nil {
			return nil, err
		}
		return result.Markup, nil
	}

	kit.RegisterMCPTool(srv, tool, p.logged(tool.Name, endpoint), kit.DecodeJSON[parseReq]())
}

// --- get_output_settings ---

func (p *Pipeline) registerSettingsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_output_settings",
		Description: "Return the resolved output settings so agents can adapt behavior.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		s := p.cfg.Settings
		return map[string]any{
			"settings_source":         p.cfg.SettingsSource,
			"settings_env_var":        settings.EnvVar,
			"default_output_format":   s.DefaultOutputFormat,
			"md_rewrite_tags":         s.RewriteTags,
			"md_fix_sized_delimiters": s.FixSizedDelimiters,
			"cache_enabled":           s.CachePath != "",
			"fallback_tesseract":      s.FallbackTesseract,
		}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (any, error) { return nil, nil }
	kit.RegisterMCPTool(srv, tool, p.logged(tool.Name, endpoint), decode)
}

// --- nougat_preflight ---

type preflightReq struct {
	Path string `json:"path"`
}

func (p *Pipeline) registerPreflightTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name: "nougat_preflight",
		Description: "Inspect a PDF before OCR: page count, embedded images, and existing text layer. " +
			"Useful to decide whether an expensive Nougat run is worth it.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Absolute path to the PDF file",
			},
		}, []string{"path"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*preflightReq)
		return p.Preflight(r.Path)
	}

	kit.RegisterMCPTool(srv, tool, p.logged(tool.Name, endpoint), kit.DecodeJSON[preflightReq]())
}
