package gemini

import (
	"context"
	"time"

	"google.golang.org/genai"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

// Backend generates minutes with GenerateContent. Strict calls set the JSON
// MIME type and response schema.
type Backend struct {
	cfg model.GeneratorConfig
}

var _ model.Backend = (*Backend)(nil)

func NewBackend(opts ...model.GeneratorOption) *Backend {
	return &Backend{cfg: model.ResolveGeneratorOpts(opts...)}
}

func (b *Backend) Name() model.Provider {
	return model.ProviderGemini
}

func (b *Backend) GenerateStrict(ctx context.Context, req model.GenerationRequest) (string, model.GenerationMetadata, error) {
	config := buildGenerateContentConfig(b.cfg.SystemPromptFor(model.ContractStrictJSON), req.Params)
	config.ResponseMIMEType = "application/json"
	if len(req.Schema) > 0 {
		config.ResponseJsonSchema = req.Schema
	}
	return b.generate(ctx, req, model.ContractStrictJSON, config)
}

func (b *Backend) GenerateFreeform(ctx context.Context, req model.GenerationRequest) (string, model.GenerationMetadata, error) {
	config := buildGenerateContentConfig(b.cfg.SystemPromptFor(model.ContractFreeform), req.Params)
	return b.generate(ctx, req, model.ContractFreeform, config)
}

func (b *Backend) generate(
	ctx context.Context,
	req model.GenerationRequest,
	contract model.OutputContract,
	config *genai.GenerateContentConfig,
) (string, model.GenerationMetadata, error) {
	start := time.Now()
	log := logging.NewLogger(ctx)

	modelName := b.cfg.ModelFor(req, defaultGenerationModelName)
	meta := model.NewGenerationMetadata(providerName, modelName)
	defer meta.SetLatency(start)

	client, err := newAPIClient(ctx, b.cfg)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	log.Infof(
		"contract=%s model=%q %s prompt_chars=%d",
		contract,
		modelName,
		req.Params,
		len(req.Prompt),
	)

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	response, err := client.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyGenerateMetadata(meta, response)

	return response.Text(), meta, nil
}

func buildGenerateContentConfig(systemPrompt string, params model.GenerationParams) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	if temperature := model.ClampTemperature(params.Temperature, 0, maxTemperature); temperature != nil {
		temp := float32(*temperature)
		config.Temperature = &temp
	}
	if params.MaxOutputTokens != nil && *params.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(*params.MaxOutputTokens)
	}
	return config
}
