package openai

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

const (
	defaultModelName = "gpt-4o"
	schemaName       = "acta_reunion"
	maxTemperature   = 2.0
)

// Backend generates minutes with the Responses API.
type Backend struct {
	client *client
	cfg    model.GeneratorConfig
}

var _ model.Backend = (*Backend)(nil)

func NewBackend(opts ...model.GeneratorOption) *Backend {
	cfg := model.ResolveGeneratorOpts(opts...)
	return &Backend{client: newClient(cfg), cfg: cfg}
}

func (b *Backend) Name() model.Provider {
	return model.ProviderOpenAI
}

// GenerateStrict requests a reply constrained by req.Schema.
func (b *Backend) GenerateStrict(ctx context.Context, req model.GenerationRequest) (string, model.GenerationMetadata, error) {
	if len(req.Schema) == 0 {
		return "", nil, utils.WrapIfNotNil(errors.New("a response schema is required for strict generation"))
	}
	textCfg := responses.ResponseTextConfigParam{
		Format: responses.ResponseFormatTextConfigUnionParam{
			OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
				Name:   schemaName,
				Schema: req.Schema,
				Strict: openai.Bool(true),
			},
		},
	}
	return b.generate(ctx, req, model.ContractStrictJSON, &textCfg)
}

func (b *Backend) GenerateFreeform(ctx context.Context, req model.GenerationRequest) (string, model.GenerationMetadata, error) {
	return b.generate(ctx, req, model.ContractFreeform, nil)
}

func (b *Backend) generate(
	ctx context.Context,
	req model.GenerationRequest,
	contract model.OutputContract,
	textCfg *responses.ResponseTextConfigParam,
) (string, model.GenerationMetadata, error) {
	start := time.Now()
	log := logging.NewLogger(ctx)

	modelName := b.cfg.ModelFor(req, defaultModelName)
	meta := model.NewGenerationMetadata(string(model.ProviderOpenAI), modelName)
	defer meta.SetLatency(start)

	params := buildParams(modelName, b.cfg.SystemPromptFor(contract), req, textCfg, log)
	log.Infof(
		"contract=%s model=%q %s prompt_chars=%d",
		contract,
		modelName,
		req.Params,
		len(req.Prompt),
	)

	response, err := b.client.apiClient.Responses.New(ctx, params)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	if response == nil {
		return "", meta, utils.WrapIfNotNil(errors.New("responses API returned nil response"))
	}
	applyResponseMetadata(meta, response)

	return response.OutputText(), meta, nil
}

func buildParams(
	modelName string,
	systemPrompt string,
	req model.GenerationRequest,
	textCfg *responses.ResponseTextConfigParam,
	log logging.Logger,
) responses.ResponseNewParams {
	input := responses.ResponseInputParam{
		responses.ResponseInputItemParamOfMessage(systemPrompt, responses.EasyInputMessageRoleSystem),
		responses.ResponseInputItemParamOfMessage(req.Prompt, responses.EasyInputMessageRoleUser),
	}

	params := responses.ResponseNewParams{
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: input},
		Model: shared.ResponsesModel(modelName),
	}

	if temperature := model.ClampTemperature(req.Params.Temperature, 0, maxTemperature); temperature != nil {
		if isReasoningModel(modelName) {
			if log != nil {
				log.Warnf("ignoring temperature for reasoning model %q", modelName)
			}
		} else {
			params.Temperature = openai.Float(*temperature)
		}
	}
	if req.Params.MaxOutputTokens != nil && *req.Params.MaxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(*req.Params.MaxOutputTokens))
	}
	if textCfg != nil {
		params.Text = *textCfg
	}
	return params
}

func applyResponseMetadata(meta model.GenerationMetadata, response *responses.Response) {
	if meta == nil || response == nil {
		return
	}
	meta.SetTokens(response.Usage.InputTokens, response.Usage.OutputTokens, response.Usage.TotalTokens)
	meta.SetIfNotEmpty(model.MetadataKeyResponseID, response.ID)
	meta.SetIfNotEmpty(model.MetadataKeyResponseStatus, string(response.Status))
}

func isReasoningModel(modelName string) bool {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if name == "" {
		return false
	}

	return strings.HasPrefix(name, "o1") ||
		strings.HasPrefix(name, "o3") ||
		strings.HasPrefix(name, "o4") ||
		strings.HasPrefix(name, "gpt-5")
}
