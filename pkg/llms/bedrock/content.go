package bedrock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/minutes"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

// Backend sends a single Converse turn. Converse has no JSON mode, so strict
// calls carry the schema in the system prompt.
type Backend struct {
	cfg       model.GeneratorConfig
	settings  Settings
	newClient func(ctx context.Context) (converseAPI, error)
}

var _ model.Backend = (*Backend)(nil)

func NewBackend(settings Settings, opts ...model.GeneratorOption) *Backend {
	cfg := model.ResolveGeneratorOpts(opts...)
	b := &Backend{cfg: cfg, settings: settings}
	b.newClient = func(ctx context.Context) (converseAPI, error) {
		return newClient(ctx, b.settings, b.cfg)
	}
	return b
}

func (b *Backend) Name() model.Provider {
	return model.ProviderBedrock
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

	modelID := b.cfg.ModelFor(req, defaultModelName)
	meta := model.NewGenerationMetadata(providerName, modelID)
	defer meta.SetLatency(start)

	client, err := b.newClient(ctx)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	log.Infof("contract=%s model=%q %s prompt_chars=%d", contract, modelID, req.Params, len(req.Prompt))

	output, err := client.Converse(ctx, buildConverseInput(modelID, system, req))
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyBedrockMetadata(meta, output)

	message, err := extractOutputMessage(output.Output)
	if err != nil {
		return "", meta, utils.WrapIfNotNil(err)
	}
	return extractTextFromMessage(message), meta, nil
}

func buildConverseInput(modelID string, system string, req model.GenerationRequest) *bedrockruntime.ConverseInput {
	return &bedrockruntime.ConverseInput{
		ModelId: aws.String(modelID),
		System: []bedrocktypes.SystemContentBlock{
			&bedrocktypes.SystemContentBlockMemberText{Value: system},
		},
		Messages: []bedrocktypes.Message{
			{
				Role: bedrocktypes.ConversationRoleUser,
				Content: []bedrocktypes.ContentBlock{
					&bedrocktypes.ContentBlockMemberText{Value: req.Prompt},
				},
			},
		},
		InferenceConfig: buildInferenceConfig(req.Params),
	}
}

func buildInferenceConfig(params model.GenerationParams) *bedrocktypes.InferenceConfiguration {
	temperature := model.ClampTemperature(params.Temperature, 0, maxTemperature)
	if params.MaxOutputTokens == nil && temperature == nil {
		return nil
	}

	inference := &bedrocktypes.InferenceConfiguration{}
	if params.MaxOutputTokens != nil && *params.MaxOutputTokens > 0 {
		inference.MaxTokens = aws.Int32(int32(*params.MaxOutputTokens))
	}
	if temperature != nil {
		inference.Temperature = aws.Float32(float32(*temperature))
	}
	return inference
}

func extractOutputMessage(output bedrocktypes.ConverseOutput) (bedrocktypes.Message, error) {
	message, ok := output.(*bedrocktypes.ConverseOutputMemberMessage)
	if !ok || message == nil {
		return bedrocktypes.Message{}, errors.New("converse output did not contain a message")
	}
	return message.Value, nil
}

func extractTextFromMessage(message bedrocktypes.Message) string {
	parts := make([]string, 0, len(message.Content))
	for _, block := range message.Content {
		textBlock, ok := block.(*bedrocktypes.ContentBlockMemberText)
		if !ok {
			continue
		}
		parts = append(parts, textBlock.Value)
	}
	return strings.Join(parts, "")
}
