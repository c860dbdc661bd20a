package anthropic

import (
	"context"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/minutes"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

// Backend sends one user message per call. The Messages API has no JSON
// mode, so strict calls carry the schema in the system prompt.
type Backend struct {
	client *apiClient
	cfg    model.GeneratorConfig
}

var _ model.Backend = (*Backend)(nil)

func NewBackend(opts ...model.GeneratorOption) *Backend {
	cfg := model.ResolveGeneratorOpts(opts...)
	return &Backend{client: newAPIClient(cfg), cfg: cfg}
}

func (b *Backend) Name() model.Provider {
	return model.ProviderAnthropic
}

func (b *Backend) GenerateStrict(ctx context.Context, req model.GenerationRequest) (string, model.GenerationMetadata, error) {
	instruction, err := minutes.SchemaInstruction(req.Schema)
	if err != nil {
		return "", nil, utils.WrapIfNotNil(err)
	}
	system := b.cfg.SystemPromptFor(model.ContractStrictJSON) + "\n\n" + instruction
	return b.generate(ctx, req, model.ContractStrictJSON, system)
}

func (b *Backend) GenerateFreeform(ctx context.Context, req model.GenerationRequest) (string, model.GenerationMetadata, error) {
	return b.generate(ctx, req, model.ContractFreeform, b.cfg.SystemPromptFor(model.ContractFreeform))
}

func (b *Backend) generate(
	ctx context.Context,
	req model.GenerationRequest,
	contract model.OutputContract,
	system string,
) (string, model.GenerationMetadata, error) {
	start := time.Now()
	log := logging.NewLogger(ctx)

	modelName := b.cfg.ModelFor(req, defaultModelName)
	meta := model.NewGenerationMetadata(string(model.ProviderAnthropic), modelName)
	defer meta.SetLatency(start)

	request := buildMessageRequest(modelName, system, req)
	log.Infof(
		"contract=%s model=%q %s max_tokens=%d prompt_chars=%d",
		contract,
		modelName,
		req.Params,
		request.MaxTokens,
		len(req.Prompt),
	)

	response, err := b.client.createMessage(ctx, request)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyAnthropicMetadata(meta, response)

	return extractTextFromContentBlocks(response.Content), meta, nil
}

func buildMessageRequest(modelName string, system string, req model.GenerationRequest) anthropicMessageRequest {
	return anthropicMessageRequest{
		Model:       modelName,
		MaxTokens:   resolveMaxTokens(req.Params),
		Temperature: model.ClampTemperature(req.Params.Temperature, 0, maxTemperature),
		System:      system,
		Messages: []anthropicMessage{
			{
				Role:    "user",
				Content: []anthropicContentBlock{{Type: "text", Text: req.Prompt}},
			},
		},
	}
}

func extractTextFromContentBlocks(blocks []anthropicContentBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if block.Type != "text" {
			continue
		}
		parts = append(parts, block.Text)
	}
	return strings.Join(parts, "")
}
