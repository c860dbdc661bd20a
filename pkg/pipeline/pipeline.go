// Package pipeline is the surface other tools drive: transcribe a recording,
// generate minutes from a transcript, preview them and export them as PDF.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/config"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/dispatch"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/minutes"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/prompt"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/render"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/transcription"
)

const invocationField = "invocation_id"

type Transcriber interface {
	Transcribe(ctx context.Context, path string) (model.Transcript, error)
}

type Generator interface {
	Generate(ctx context.Context, contract model.OutputContract, req model.GenerationRequest) (*model.RawOutput, error)
}

type modelLister interface {
	ListModels(ctx context.Context, provider model.Provider) ([]string, bool, error)
}

// Templates holds one loaded template per output contract.
type Templates struct {
	Strict   *prompt.Template
	Freeform *prompt.Template
}

func (t Templates) forContract(contract model.OutputContract) (*prompt.Template, error) {
	var tmpl *prompt.Template
	switch contract {
	case model.ContractStrictJSON:
		tmpl = t.Strict
	case model.ContractFreeform:
		tmpl = t.Freeform
	}
	if tmpl == nil {
		return nil, &model.ConfigurationError{
			Component: "pipeline",
			Setting:   "template",
			Err:       fmt.Errorf("no template loaded for %q output", contract),
		}
	}
	return tmpl, nil
}

// GenerateRequest describes one minutes generation. Nil params fall back to
// the pipeline defaults and an empty Model to the provider's configured one.
type GenerateRequest struct {
	Transcript  model.Transcript
	UserContext string
	Provider    model.Provider
	Model       string
	Contract    model.OutputContract
	Params      model.GenerationParams
}

// Generation is the result of GenerateMinutes. Empty is set when a strict
// provider replied with nothing and Content holds an all-default Document.
type Generation struct {
	Content  minutes.Content
	Empty    bool
	Metadata model.GenerationMetadata
}

type Pipeline struct {
	transcriber Transcriber
	generator   Generator
	templates   Templates
	defaults    model.GenerationParams
	modelFor    func(model.Provider) string
	clock       func() time.Time
}

type Option func(*Pipeline)

func WithDefaultParams(params model.GenerationParams) Option {
	return func(p *Pipeline) {
		p.defaults = params
	}
}

// WithModelResolver sets the model used when a request names none.
func WithModelResolver(resolver func(model.Provider) string) Option {
	return func(p *Pipeline) {
		p.modelFor = resolver
	}
}

func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) {
		p.clock = clock
	}
}

func New(transcriber Transcriber, generator Generator, templates Templates, opts ...Option) *Pipeline {
	p := &Pipeline{
		transcriber: transcriber,
		generator:   generator,
		templates:   templates,
		modelFor:    func(model.Provider) string { return "" },
		clock:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// NewFromConfig loads both templates and wires the configured transcription
// backend and every provider. A template that cannot be loaded is fatal.
func NewFromConfig(cfg *config.Config) (*Pipeline, error) {
	strict, err := prompt.Load(cfg.Templates.JSON)
	if err != nil {
		return nil, err
	}
	freeform, err := prompt.Load(cfg.Templates.Markdown)
	if err != nil {
		return nil, err
	}

	backend, err := transcription.NewBackend(cfg)
	if err != nil {
		return nil, err
	}

	return New(
		transcription.NewGateway(backend),
		dispatch.NewFromConfig(cfg),
		Templates{Strict: strict, Freeform: freeform},
		WithDefaultParams(cfg.Params()),
		WithModelResolver(cfg.ModelFor),
	), nil
}

func (p *Pipeline) Transcribe(ctx context.Context, path string) (model.Transcript, error) {
	ctx = withInvocation(ctx)
	return p.transcriber.Transcribe(ctx, path)
}

// GenerateMinutes renders the prompt for the requested contract, dispatches
// it once and shapes the reply into Content.
func (p *Pipeline) GenerateMinutes(ctx context.Context, req GenerateRequest) (*Generation, error) {
	ctx = withInvocation(ctx)
	log := logging.NewLogger(ctx).WithField("provider", req.Provider)

	tmpl, err := p.templates.forContract(req.Contract)
	if err != nil {
		return nil, err
	}
	text, err := tmpl.Render(req.Transcript, req.UserContext, p.clock().Format(prompt.DateLayout))
	if err != nil {
		return nil, err
	}

	modelName := req.Model
	if modelName == "" {
		modelName = p.modelFor(req.Provider)
	}

	raw, err := p.generator.Generate(ctx, req.Contract, model.GenerationRequest{
		Provider: req.Provider,
		Model:    modelName,
		Prompt:   text,
		Params:   mergeParams(req.Params, p.defaults),
	})
	if err != nil {
		return nil, err
	}

	generation := &Generation{Empty: raw.Empty, Metadata: raw.Metadata}
	switch req.Contract {
	case model.ContractStrictJSON:
		if raw.Empty {
			log.Warnf("provider returned an empty reply; minutes will contain defaults only")
		}
		generation.Content = minutes.Validate(raw.Object)
	default:
		generation.Content = minutes.Freeform(raw.Text)
	}
	return generation, nil
}

// Render returns the plain-text preview of content.
func (p *Pipeline) Render(content minutes.Content) string {
	return render.Preview(content)
}

func (p *Pipeline) Export(ctx context.Context, content minutes.Content, path string) error {
	ctx = withInvocation(ctx)
	return render.ExportFile(ctx, content, path)
}

// RunRequest drives the whole sequence. OutputPath may be empty to skip export.
type RunRequest struct {
	AudioPath  string
	OutputPath string
	Generate   GenerateRequest
}

type RunResult struct {
	Transcript model.Transcript
	Generation *Generation
	Preview    string
	OutputPath string
}

// Run transcribes, generates, previews and optionally exports. The result
// holds everything produced before a failing stage.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	ctx = withInvocation(ctx)
	result := &RunResult{}

	transcript, err := p.Transcribe(ctx, req.AudioPath)
	if err != nil {
		return result, err
	}
	result.Transcript = transcript

	genReq := req.Generate
	genReq.Transcript = transcript
	generation, err := p.GenerateMinutes(ctx, genReq)
	if err != nil {
		return result, err
	}
	result.Generation = generation
	result.Preview = p.Render(generation.Content)

	if req.OutputPath == "" {
		return result, nil
	}
	if err := p.Export(ctx, generation.Content, req.OutputPath); err != nil {
		return result, err
	}
	result.OutputPath = req.OutputPath
	return result, nil
}

// ListModels reports the models a provider offers, or its configured model
// when the provider cannot enumerate them.
func (p *Pipeline) ListModels(ctx context.Context, provider model.Provider) ([]string, error) {
	ctx = withInvocation(ctx)
	if lister, ok := p.generator.(modelLister); ok {
		names, supported, err := lister.ListModels(ctx, provider)
		if err != nil {
			return nil, err
		}
		if supported {
			return names, nil
		}
	}
	if name := p.modelFor(provider); name != "" {
		return []string{name}, nil
	}
	return nil, errors.New("no models known for " + string(provider))
}

func mergeParams(req model.GenerationParams, defaults model.GenerationParams) model.GenerationParams {
	if req.Temperature == nil {
		req.Temperature = defaults.Temperature
	}
	if req.MaxOutputTokens == nil {
		req.MaxOutputTokens = defaults.MaxOutputTokens
	}
	if req.ContextWindow == nil {
		req.ContextWindow = defaults.ContextWindow
	}
	return req
}

type invocationKey struct{}

// withInvocation tags ctx with a fresh invocation id unless it has one.
func withInvocation(ctx context.Context) context.Context {
	if _, ok := ctx.Value(invocationKey{}).(string); ok {
		return ctx
	}
	id := uuid.NewString()
	ctx = context.WithValue(ctx, invocationKey{}, id)
	return logging.ContextWithField(ctx, invocationField, id)
}

// InvocationID returns the id attached to ctx, if any.
func InvocationID(ctx context.Context) string {
	id, _ := ctx.Value(invocationKey{}).(string)
	return id
}
