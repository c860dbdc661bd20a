// Package mcp exposes the minutes pipeline as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/minutes"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/pipeline"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

const (
	ServerName = "polyglot-minutes"

	ToolTranscribe = "transcribe"
	ToolGenerate   = "generate_minutes"
	ToolExport     = "export_minutes"
)

// Minutes is the part of the pipeline the tools call into.
type Minutes interface {
	Transcribe(ctx context.Context, path string) (model.Transcript, error)
	GenerateMinutes(ctx context.Context, req pipeline.GenerateRequest) (*pipeline.Generation, error)
	Export(ctx context.Context, content minutes.Content, path string) error
}

// Defaults fill in tool arguments the caller leaves out.
type Defaults struct {
	Provider model.Provider
	Contract model.OutputContract
}

type toolSet struct {
	minutes  Minutes
	defaults Defaults
}

// NewServer registers the transcribe, generate and export tools.
func NewServer(m Minutes, defaults Defaults, version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false))
	tools := &toolSet{minutes: m, defaults: defaults}

	s.AddTool(mcp.NewTool(ToolTranscribe,
		mcp.WithDescription("Transcribe an audio or video file into text."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the recording")),
	), guarded(ToolTranscribe, tools.transcribe))

	s.AddTool(mcp.NewTool(ToolGenerate,
		mcp.WithDescription("Generate meeting minutes from a transcript. Returns JSON minutes or a markdown document."),
		mcp.WithString("transcript", mcp.Required(), mcp.Description("Meeting transcript")),
		mcp.WithString("context", mcp.Description("Optional notes about the meeting")),
		mcp.WithString("provider", mcp.Description("Generation provider"), mcp.Enum(providerNames()...)),
		mcp.WithString("model", mcp.Description("Model name; the provider default when omitted")),
		mcp.WithString("format", mcp.Description("Output format"), mcp.Enum("json", "markdown")),
		mcp.WithNumber("temperature", mcp.Description("Sampling temperature")),
	), guarded(ToolGenerate, tools.generate))

	s.AddTool(mcp.NewTool(ToolExport,
		mcp.WithDescription("Export minutes to a PDF file."),
		mcp.WithString("content", mcp.Required(), mcp.Description("JSON minutes or a markdown document")),
		mcp.WithString("format", mcp.Description("Format of content"), mcp.Enum("json", "markdown")),
		mcp.WithString("output", mcp.Required(), mcp.Description("Destination PDF path")),
	), guarded(ToolExport, tools.export))

	return s
}

// ServeStdio blocks serving the tools on stdin and stdout.
func ServeStdio(s *server.MCPServer) error {
	return utils.WrapIfNotNil(server.ServeStdio(s))
}

func (t *toolSet) transcribe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	transcript, err := t.minutes.Transcribe(ctx, path)
	if err != nil {
		return toolError(ctx, ToolTranscribe, err), nil
	}
	return mcp.NewToolResultText(transcript.String()), nil
}

func (t *toolSet) generate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	transcript, err := request.RequireString("transcript")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	provider := t.defaults.Provider
	if raw := request.GetString("provider", ""); raw != "" {
		parsed, ok := model.ParseProvider(raw)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown provider %q", raw)), nil
		}
		provider = parsed
	}
	contract, err := t.contract(request.GetString("format", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pipeline.GenerateRequest{
		Transcript:  model.Transcript(transcript),
		UserContext: request.GetString("context", ""),
		Provider:    provider,
		Model:       request.GetString("model", ""),
		Contract:    contract,
	}
	if args := request.GetArguments(); args["temperature"] != nil {
		req.Params.Temperature = model.Float(request.GetFloat("temperature", 0))
	}

	generation, err := t.minutes.GenerateMinutes(ctx, req)
	if err != nil {
		return toolError(ctx, ToolGenerate, err), nil
	}

	switch content := generation.Content.(type) {
	case *minutes.Document:
		encoded, err := json.MarshalIndent(content, "", "  ")
		if err != nil {
			return toolError(ctx, ToolGenerate, err), nil
		}
		return mcp.NewToolResultText(string(encoded)), nil
	case minutes.Freeform:
		return mcp.NewToolResultText(string(content)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unexpected content %T", content)), nil
	}
}

func (t *toolSet) export(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	output, err := request.RequireString("output")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	contract, err := t.contract(request.GetString("format", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var content minutes.Content = minutes.Freeform(text)
	if contract == model.ContractStrictJSON {
		doc, err := minutes.ParseStrict(text)
		if err != nil {
			return mcp.NewToolResultError("content is not a JSON minutes object: " + err.Error()), nil
		}
		content = doc
	}

	if err := t.minutes.Export(ctx, content, output); err != nil {
		return toolError(ctx, ToolExport, err), nil
	}
	return mcp.NewToolResultText("exported " + output), nil
}

func (t *toolSet) contract(raw string) (model.OutputContract, error) {
	if strings.TrimSpace(raw) == "" {
		return t.defaults.Contract, nil
	}
	contract, ok := model.ParseOutputContract(raw)
	if !ok {
		return "", fmt.Errorf("unknown format %q", raw)
	}
	return contract, nil
}

// guarded turns a panic inside a tool into a tool error instead of ending
// the stdio session.
func guarded(tool string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				log := logging.NewLogger(ctx).WithField("tool", tool)
				log.Errorf("panic: %v", r)
				utils.PrintStack(tool, log)
				result = mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", tool, r))
				err = nil
			}
		}()
		return handler(ctx, request)
	}
}

// toolError reports a failed call as tool output so the client can show it.
func toolError(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	logging.NewLogger(ctx).WithField("tool", tool).Errorf("error: %v", err)

	var configErr *model.ConfigurationError
	if errors.As(err, &configErr) {
		return mcp.NewToolResultErrorFromErr("configuration problem", err)
	}
	return mcp.NewToolResultErrorFromErr(tool+" failed", err)
}

func providerNames() []string {
	names := make([]string, 0, len(model.Providers()))
	for _, p := range model.Providers() {
		names = append(names, string(p))
	}
	return names
}
