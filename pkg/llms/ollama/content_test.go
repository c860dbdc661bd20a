package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
)

type BackendSuite struct {
	suite.Suite
	server   *httptest.Server
	requests []map[string]any
	status   int
	reply    string
}

func TestBackendSuite(t *testing.T) {
	suite.Run(t, new(BackendSuite))
}

func (s *BackendSuite) SetupTest() {
	s.requests = nil
	s.status = http.StatusOK
	s.reply = `{"model":"mistral","response":"{\"titulo_reunion\":\"Kickoff\"}","done":true,"done_reason":"stop","prompt_eval_count":120,"eval_count":30}`
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate":
			var body map[string]any
			s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
			s.requests = append(s.requests, body)
			w.WriteHeader(s.status)
			_, _ = w.Write([]byte(s.reply))
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"mistral:latest"},{"name":"llama3.1:8b"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func (s *BackendSuite) TearDownTest() {
	s.server.Close()
}

func (s *BackendSuite) backend() *Backend {
	return NewBackend(model.WithURL(s.server.URL + "/"))
}

func (s *BackendSuite) TestStrictRequestsJSONFormat() {
	out, meta, err := s.backend().GenerateStrict(context.Background(), model.GenerationRequest{
		Prompt: "acta",
		Params: model.GenerationParams{
			Temperature:     model.Float(2.7),
			MaxOutputTokens: model.Int(8192),
			ContextWindow:   model.Int(16384),
		},
	})

	s.Require().NoError(err)
	s.Equal(`{"titulo_reunion":"Kickoff"}`, out)
	s.Equal("150", meta[model.MetadataKeyTotalTokens])
	s.Equal("stop", meta[model.MetadataKeyResponseStatus])

	s.Require().Len(s.requests, 1)
	body := s.requests[0]
	s.Equal("mistral", body["model"])
	s.Equal("json", body["format"])
	s.Equal(false, body["stream"])
	options, ok := body["options"].(map[string]any)
	s.Require().True(ok)
	s.Equal(2.0, options["temperature"])
	s.Equal(8192.0, options["num_predict"])
	s.Equal(16384.0, options["num_ctx"])
}

func (s *BackendSuite) TestFreeformOmitsFormat() {
	s.reply = `{"response":"# Acta\n","done":true}`
	out, _, err := s.backend().GenerateFreeform(context.Background(), model.GenerationRequest{Prompt: "acta", Model: "llama3.1"})

	s.Require().NoError(err)
	s.Equal("# Acta\n", out)
	s.Require().Len(s.requests, 1)
	s.NotContains(s.requests[0], "format")
	s.NotContains(s.requests[0], "options")
	s.Equal("llama3.1", s.requests[0]["model"])
}

func (s *BackendSuite) TestServerErrorIsReported() {
	s.status = http.StatusNotFound
	s.reply = `{"error":"model 'mistral' not found"}`

	_, _, err := s.backend().GenerateStrict(context.Background(), model.GenerationRequest{Prompt: "acta"})
	s.Require().Error(err)
	s.Contains(err.Error(), "404")
	s.Contains(err.Error(), "not found")
}

func (s *BackendSuite) TestListModels() {
	names, err := s.backend().ListModels(context.Background())
	s.Require().NoError(err)
	s.Equal([]string{"mistral:latest", "llama3.1:8b"}, names)
}
