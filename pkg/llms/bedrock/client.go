// Package bedrock implements minutes generation with the Bedrock Converse API.
package bedrock

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

const (
	defaultModelName = "us.anthropic.claude-3-5-sonnet-20241022-v2:0"
	providerName     = "bedrock"
	defaultRegion    = "us-east-1"
	maxTemperature   = 1.0
)

// Settings select the AWS region and shared profile. Empty values fall back
// to AWS_REGION, AWS_PROFILE and the default credential chain.
type Settings struct {
	Region  string
	Profile string
}

type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

func newClient(ctx context.Context, settings Settings, cfg model.GeneratorConfig) (converseAPI, error) {
	awsCfg, err := loadAWSConfig(ctx, settings)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	client := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if strings.TrimSpace(cfg.URL) != "" {
			o.BaseEndpoint = aws.String(strings.TrimSpace(cfg.URL))
		}
	})
	return client, nil
}

func loadAWSConfig(ctx context.Context, settings Settings) (aws.Config, error) {
	loadOpts, err := awsLoadOptions(settings)
	if err != nil {
		return aws.Config{}, utils.WrapIfNotNil(err)
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, utils.WrapIfNotNil(err)
	}
	return cfg, nil
}

func awsLoadOptions(settings Settings) ([]func(*config.LoadOptions) error, error) {
	region := strings.TrimSpace(settings.Region)
	if region == "" {
		region = strings.TrimSpace(os.Getenv("AWS_REGION"))
	}
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		// A failed call is reported, never repeated.
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	}

	accessKeyID := strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
	secretAccessKey := strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY"))
	profile := strings.TrimSpace(settings.Profile)
	if profile == "" {
		profile = strings.TrimSpace(os.Getenv("AWS_PROFILE"))
	}

	switch {
	case accessKeyID != "" || secretAccessKey != "":
		if accessKeyID == "" || secretAccessKey == "" {
			return nil, errors.New("both AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are required when using key-based auth")
		}

		sessionToken := strings.TrimSpace(os.Getenv("AWS_SESSION_TOKEN"))
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken),
		))
	case profile != "":
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(profile))
	}
	return loadOpts, nil
}

func applyBedrockMetadata(meta model.GenerationMetadata, output *bedrockruntime.ConverseOutput) {
	if meta == nil || output == nil {
		return
	}

	if output.Usage != nil {
		meta.SetTokens(
			int64(aws.ToInt32(output.Usage.InputTokens)),
			int64(aws.ToInt32(output.Usage.OutputTokens)),
			int64(aws.ToInt32(output.Usage.TotalTokens)),
		)
	}
	meta.SetIfNotEmpty(model.MetadataKeyResponseStatus, string(output.StopReason))
}
