// Package dispatch routes a generation request to the selected provider and
// normalizes the reply under the requested output contract.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/minutes"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

// ModelLister is implemented by backends that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

type Dispatcher struct {
	backends    map[model.Provider]model.Backend
	credentials model.Credentials

	schemaOnce sync.Once
	schema     map[string]any
	schemaErr  error
}

func New(credentials model.Credentials, backends ...model.Backend) *Dispatcher {
	d := &Dispatcher{
		backends:    make(map[model.Provider]model.Backend, len(backends)),
		credentials: credentials,
	}
	for _, b := range backends {
		d.Register(b)
	}
	return d
}

// Register adds or replaces the backend for its provider.
func (d *Dispatcher) Register(backend model.Backend) {
	if backend == nil {
		return
	}
	d.backends[backend.Name()] = backend
}

// Providers lists the registered providers in a stable order.
func (d *Dispatcher) Providers() []model.Provider {
	providers := make([]model.Provider, 0, len(d.backends))
	for p := range d.backends {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers
}

// Generate performs exactly one backend call. Nothing is retried or repaired.
func (d *Dispatcher) Generate(ctx context.Context, contract model.OutputContract, req model.GenerationRequest) (*model.RawOutput, error) {
	start := time.Now()
	log := logging.NewLogger(ctx).WithField("provider", req.Provider)

	backend, err := d.backendFor(req.Provider)
	if err != nil {
		return nil, err
	}
	if err := d.checkCredentials(req.Provider); err != nil {
		log.Errorf("error: %v", err)
		return nil, err
	}

	var (
		reply string
		meta  model.GenerationMetadata
	)
	switch contract {
	case model.ContractStrictJSON:
		if req.Schema == nil {
			req.Schema, err = d.minutesSchema()
			if err != nil {
				return nil, &model.GenerationError{Provider: req.Provider, Model: req.Model, Err: err}
			}
		}
		reply, meta, err = backend.GenerateStrict(ctx, req)
	case model.ContractFreeform:
		reply, meta, err = backend.GenerateFreeform(ctx, req)
	default:
		return nil, &model.ConfigurationError{
			Component: "dispatch",
			Setting:   "format",
			Err:       fmt.Errorf("unknown output contract %q", contract),
		}
	}
	if err != nil {
		log.Errorf("error: %v", err)
		return nil, &model.GenerationError{Provider: req.Provider, Model: modelName(req, meta), Err: err}
	}

	out, err := normalize(req.Provider, contract, reply)
	if err != nil {
		log.Warnf("malformed reply preview=%q", utils.Truncate(reply, 200))
		return nil, err
	}
	out.Metadata = meta

	log.Infof("contract=%s model=%q empty=%t chars=%d latency_ms=%d",
		contract, modelName(req, meta), out.Empty, len(out.Raw), time.Since(start).Milliseconds())
	return out, nil
}

// ListModels asks the provider for its models when it supports that.
func (d *Dispatcher) ListModels(ctx context.Context, provider model.Provider) ([]string, bool, error) {
	backend, err := d.backendFor(provider)
	if err != nil {
		return nil, false, err
	}
	lister, ok := backend.(ModelLister)
	if !ok {
		return nil, false, nil
	}
	names, err := lister.ListModels(ctx)
	if err != nil {
		return nil, true, &model.GenerationError{Provider: provider, Err: err}
	}
	return names, true, nil
}

func (d *Dispatcher) backendFor(provider model.Provider) (model.Backend, error) {
	backend, ok := d.backends[provider]
	if !ok {
		return nil, &model.ConfigurationError{
			Component: "dispatch",
			Setting:   "provider",
			Err:       fmt.Errorf("provider %q is not registered", provider),
		}
	}
	return backend, nil
}

func (d *Dispatcher) checkCredentials(provider model.Provider) error {
	key, setting, required := d.credentials.ForProvider(provider)
	if !required || key != "" {
		return nil
	}
	return &model.ConfigurationError{
		Component: string(provider),
		Setting:   setting,
		Err:       errors.New("credential is not set"),
	}
}

func (d *Dispatcher) minutesSchema() (map[string]any, error) {
	d.schemaOnce.Do(func() {
		d.schema, d.schemaErr = minutes.Schema()
	})
	return d.schema, d.schemaErr
}

func normalize(provider model.Provider, contract model.OutputContract, reply string) (*model.RawOutput, error) {
	trimmed := strings.TrimSpace(reply)
	out := &model.RawOutput{Contract: contract, Raw: trimmed}

	if contract == model.ContractFreeform {
		if trimmed == "" {
			trimmed = model.EmptyFreeformSentinel
		}
		out.Text = trimmed
		return out, nil
	}

	if trimmed == "" {
		out.Empty = true
		return out, nil
	}

	var object map[string]any
	if err := json.Unmarshal([]byte(trimmed), &object); err != nil {
		return nil, &model.MalformedOutputError{Provider: provider, Raw: trimmed, Err: err}
	}
	if object == nil {
		return nil, &model.MalformedOutputError{Provider: provider, Raw: trimmed, Err: errors.New("reply is JSON null")}
	}
	out.Object = object
	return out, nil
}

func modelName(req model.GenerationRequest, meta model.GenerationMetadata) string {
	if name := meta[model.MetadataKeyModel]; name != "" {
		return name
	}
	return req.Model
}
