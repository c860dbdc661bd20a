package bedrock

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/suite"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
)

type fakeConverse struct {
	inputs []*bedrockruntime.ConverseInput
	output *bedrockruntime.ConverseOutput
	err    error
}

func (f *fakeConverse) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.inputs = append(f.inputs, params)
	return f.output, f.err
}

type BackendSuite struct {
	suite.Suite
	fake    *fakeConverse
	backend *Backend
}

func TestBackendSuite(t *testing.T) {
	suite.Run(t, new(BackendSuite))
}

func (s *BackendSuite) SetupTest() {
	s.fake = &fakeConverse{
		output: &bedrockruntime.ConverseOutput{
			Output: &bedrocktypes.ConverseOutputMemberMessage{
				Value: bedrocktypes.Message{
					Role: bedrocktypes.ConversationRoleAssistant,
					Content: []bedrocktypes.ContentBlock{
						&bedrocktypes.ContentBlockMemberText{Value: "{\"titulo_reunion\":"},
						&bedrocktypes.ContentBlockMemberText{Value: "\"Kickoff\"}"},
					},
				},
			},
			StopReason: bedrocktypes.StopReasonEndTurn,
			Usage: &bedrocktypes.TokenUsage{
				InputTokens:  aws.Int32(20),
				OutputTokens: aws.Int32(6),
				TotalTokens:  aws.Int32(26),
			},
		},
	}
	s.backend = NewBackend(Settings{Region: "eu-west-1"})
	s.backend.newClient = func(context.Context) (converseAPI, error) { return s.fake, nil }
}

func (s *BackendSuite) TestStrictCarriesSchemaInSystemPrompt() {
	out, meta, err := s.backend.GenerateStrict(context.Background(), model.GenerationRequest{
		Prompt: "transcripción",
		Schema: map[string]any{"type": "object"},
		Params: model.GenerationParams{Temperature: model.Float(1.5), MaxOutputTokens: model.Int(4000)},
	})

	s.Require().NoError(err)
	s.Equal(`{"titulo_reunion":"Kickoff"}`, out)
	s.Equal("26", meta[model.MetadataKeyTotalTokens])
	s.Equal(string(bedrocktypes.StopReasonEndTurn), meta[model.MetadataKeyResponseStatus])

	s.Require().Len(s.fake.inputs, 1)
	input := s.fake.inputs[0]
	s.Equal(defaultModelName, aws.ToString(input.ModelId))
	system, ok := input.System[0].(*bedrocktypes.SystemContentBlockMemberText)
	s.Require().True(ok)
	s.Contains(system.Value, model.SystemPromptStrict)
	s.Contains(system.Value, `{"type":"object"}`)
	s.Equal(float32(1), aws.ToFloat32(input.InferenceConfig.Temperature))
	s.Equal(int32(4000), aws.ToInt32(input.InferenceConfig.MaxTokens))
}

func (s *BackendSuite) TestConverseErrorIsReturned() {
	s.fake.err = errors.New("throttled")
	_, _, err := s.backend.GenerateFreeform(context.Background(), model.GenerationRequest{Prompt: "hola"})
	s.Require().Error(err)
	s.Contains(err.Error(), "throttled")
}

func (s *BackendSuite) TestMissingMessageIsAnError() {
	s.fake.output = &bedrockruntime.ConverseOutput{}
	_, _, err := s.backend.GenerateFreeform(context.Background(), model.GenerationRequest{Prompt: "hola"})
	s.Error(err)
}

func (s *BackendSuite) TestInferenceConfigOmittedWithoutParams() {
	s.Nil(buildInferenceConfig(model.GenerationParams{ContextWindow: model.Int(16384)}))
}

func (s *BackendSuite) TestAWSLoadOptionsRejectsHalfKeys() {
	s.T().Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	s.T().Setenv("AWS_SECRET_ACCESS_KEY", "")
	_, err := awsLoadOptions(Settings{})
	s.Error(err)
}
