package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/minutes"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/pipeline"
)

type fakeMinutes struct {
	transcript    model.Transcript
	transcribeErr error
	generation    *pipeline.Generation
	generateErr   error
	lastGenerate  pipeline.GenerateRequest
	exported      minutes.Content
	exportPath    string
}

func (f *fakeMinutes) Transcribe(_ context.Context, _ string) (model.Transcript, error) {
	return f.transcript, f.transcribeErr
}

func (f *fakeMinutes) GenerateMinutes(_ context.Context, req pipeline.GenerateRequest) (*pipeline.Generation, error) {
	f.lastGenerate = req
	return f.generation, f.generateErr
}

func (f *fakeMinutes) Export(_ context.Context, content minutes.Content, path string) error {
	f.exported = content
	f.exportPath = path
	return nil
}

func startClient(t *testing.T, m Minutes) *client.Client {
	t.Helper()
	s := NewServer(m, Defaults{Provider: model.ProviderOllama, Contract: model.ContractStrictJSON}, "test")

	c, err := client.NewInProcessClient(s)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{Name: "minutes-test", Version: "1.0.0"}
	_, err = c.Initialize(ctx, initRequest)
	require.NoError(t, err)
	return c
}

func callTool(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args

	result, err := c.CallTool(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestServerListsTools(t *testing.T) {
	c := startClient(t, &fakeMinutes{})

	tools, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{ToolTranscribe, ToolGenerate, ToolExport}, names)
}

func TestTranscribeTool(t *testing.T) {
	c := startClient(t, &fakeMinutes{transcript: "Ana: hola a todos"})

	result := callTool(t, c, ToolTranscribe, map[string]any{"path": "reunion.mp3"})
	assert.False(t, result.IsError)
	assert.Equal(t, "Ana: hola a todos", resultText(t, result))
}

func TestTranscribeToolReportsFailureAsToolError(t *testing.T) {
	c := startClient(t, &fakeMinutes{transcribeErr: &model.NotFoundError{Path: "nope.mp3"}})

	result := callTool(t, c, ToolTranscribe, map[string]any{"path": "nope.mp3"})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "nope.mp3")
}

func TestGenerateToolReturnsJSONMinutes(t *testing.T) {
	fake := &fakeMinutes{generation: &pipeline.Generation{Content: minutes.Validate(map[string]any{"titulo_reunion": "Kickoff"})}}
	c := startClient(t, fake)

	result := callTool(t, c, ToolGenerate, map[string]any{
		"transcript":  "Ana: hola",
		"provider":    "anthropic",
		"temperature": 0.3,
	})
	require.False(t, result.IsError)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.Equal(t, "Kickoff", decoded["titulo_reunion"])

	assert.Equal(t, model.ProviderAnthropic, fake.lastGenerate.Provider)
	assert.Equal(t, model.ContractStrictJSON, fake.lastGenerate.Contract)
	require.NotNil(t, fake.lastGenerate.Params.Temperature)
	assert.Equal(t, 0.3, *fake.lastGenerate.Params.Temperature)
}

func TestGenerateToolRejectsUnknownProvider(t *testing.T) {
	fake := &fakeMinutes{}
	c := startClient(t, fake)

	result := callTool(t, c, ToolGenerate, map[string]any{"transcript": "x", "provider": "cohere"})
	assert.True(t, result.IsError)
	assert.Empty(t, fake.lastGenerate.Provider)
}

func TestGenerateToolSurfacesConfigurationError(t *testing.T) {
	c := startClient(t, &fakeMinutes{generateErr: &model.ConfigurationError{Component: "openai", Setting: "OPENAI_API_KEY"}})

	result := callTool(t, c, ToolGenerate, map[string]any{"transcript": "x", "provider": "openai", "format": "markdown"})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "OPENAI_API_KEY")
}

func TestExportToolParsesJSONContent(t *testing.T) {
	fake := &fakeMinutes{}
	c := startClient(t, fake)

	result := callTool(t, c, ToolExport, map[string]any{
		"content": `{"titulo_reunion":"Kickoff"}`,
		"format":  "json",
		"output":  "/tmp/acta.pdf",
	})
	require.False(t, result.IsError)

	doc, ok := fake.exported.(*minutes.Document)
	require.True(t, ok)
	assert.Equal(t, "Kickoff", doc.Title)
	assert.Equal(t, "/tmp/acta.pdf", fake.exportPath)
}

func TestExportToolMarkdown(t *testing.T) {
	fake := &fakeMinutes{}
	c := startClient(t, fake)

	result := callTool(t, c, ToolExport, map[string]any{"content": "# Acta", "format": "markdown", "output": "acta.pdf"})
	require.False(t, result.IsError)
	assert.Equal(t, minutes.Freeform("# Acta"), fake.exported)
}

func TestExportToolRejectsInvalidJSON(t *testing.T) {
	fake := &fakeMinutes{}
	c := startClient(t, fake)

	result := callTool(t, c, ToolExport, map[string]any{"content": "not json", "output": "acta.pdf"})
	assert.True(t, result.IsError)
	assert.Nil(t, fake.exported)
}

func TestToolErrorClassification(t *testing.T) {
	result := toolError(context.Background(), ToolGenerate, errors.New("boom"))
	assert.True(t, result.IsError)
}

type panickingMinutes struct {
	fakeMinutes
}

func (p *panickingMinutes) Transcribe(context.Context, string) (model.Transcript, error) {
	panic("decoder crashed")
}

func TestToolPanicBecomesToolError(t *testing.T) {
	c := startClient(t, &panickingMinutes{})

	result := callTool(t, c, ToolTranscribe, map[string]any{"path": "reunion.mp3"})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "decoder crashed")
}
