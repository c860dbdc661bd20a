package ollama

import (
	"context"
	"time"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

// Backend calls /api/generate without streaming. The rendered prompt already
// carries the instructions, so no system prompt is sent unless configured.
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
	return model.ProviderOllama
}

// GenerateStrict sets the server's JSON mode, which constrains the reply to
// valid JSON but not to the schema.
func (b *Backend) GenerateStrict(ctx context.Context, req model.GenerationRequest) (string, model.GenerationMetadata, error) {
	return b.generate(ctx, req, model.ContractStrictJSON)
}

func (b *Backend) GenerateFreeform(ctx context.Context, req model.GenerationRequest) (string, model.GenerationMetadata, error) {
	return b.generate(ctx, req, model.ContractFreeform)
}

// ListModels returns the names of the models installed on the server.
func (b *Backend) ListModels(ctx context.Context) ([]string, error) {
	response, err := b.client.tags(ctx)
	if err != nil {
		logging.NewLogger(ctx).Errorf("error: %v", err)
		return nil, err
	}

	names := make([]string, 0, len(response.Models))
	for _, m := range response.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (b *Backend) generate(ctx context.Context, req model.GenerationRequest, contract model.OutputContract) (string, model.GenerationMetadata, error) {
	start := time.Now()
	log := logging.NewLogger(ctx)

	modelName := b.cfg.ModelFor(req, defaultModelName)
	meta := model.NewGenerationMetadata(providerName, modelName)
	defer meta.SetLatency(start)

	request := buildGenerateRequest(modelName, b.cfg, req, contract)
	log.Infof("contract=%s model=%q %s prompt_chars=%d", contract, modelName, req.Params, len(req.Prompt))

	response, err := b.client.generate(ctx, request)
	if err != nil {
		log.Errorf("error: %v", err)
		if utils.ContainsErrorSubstring(err, "not found") {
			log.Warnf("model %q is not installed on %s; pull it with `ollama pull %s`", modelName, b.client.baseURL, modelName)
		}
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyOllamaMetadata(meta, response)
	return response.Response, meta, nil
}

func buildGenerateRequest(modelName string, cfg model.GeneratorConfig, req model.GenerationRequest, contract model.OutputContract) generateRequest {
	request := generateRequest{
		Model:   modelName,
		Prompt:  req.Prompt,
		Stream:  false,
		Options: buildGenerateOptions(req.Params),
	}
	if cfg.SystemPrompt != nil {
		request.System = *cfg.SystemPrompt
	}
	if contract == model.ContractStrictJSON {
		request.Format = formatJSON
	}
	return request
}
