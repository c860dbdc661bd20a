package transcription

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
)

type DeepgramSuite struct {
	suite.Suite
	server *httptest.Server
	calls  int
	query  url.Values
	auth   string
	body   []byte
	status int
	reply  string
}

func TestDeepgramSuite(t *testing.T) {
	suite.Run(t, new(DeepgramSuite))
}

func (s *DeepgramSuite) SetupTest() {
	s.calls = 0
	s.status = http.StatusOK
	s.reply = `{"metadata":{"request_id":"req-1"},"results":{"channels":[{"alternatives":[{"transcript":"Buenos días, comenzamos la reunión."}]}]}}`
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls++
		s.query = r.URL.Query()
		s.auth = r.Header.Get("Authorization")
		s.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(s.status)
		_, _ = w.Write([]byte(s.reply))
	}))
}

func (s *DeepgramSuite) TearDownTest() {
	s.server.Close()
}

func (s *DeepgramSuite) backend(key string) *DeepgramBackend {
	return NewDeepgramBackend(model.AudioOptions{URL: s.server.URL, AuthToken: key})
}

func (s *DeepgramSuite) TestSendsOptionsAndExtractsTranscript() {
	text, meta, err := s.backend("dg-key").Transcribe(context.Background(), "reunion.mp3", []byte("audio"))

	s.Require().NoError(err)
	s.Equal("Buenos días, comenzamos la reunión.", text)
	s.Equal("req-1", meta[model.MetadataKeyResponseID])
	s.Equal("Token dg-key", s.auth)
	s.Equal([]byte("audio"), s.body)
	s.Equal("nova-2-general", s.query.Get("model"))
	s.Equal("es", s.query.Get("language"))
	for _, flag := range []string{"smart_format", "punctuate", "diarize", "detect_topics", "paragraphs"} {
		s.Equal("true", s.query.Get(flag), flag)
	}
}

func (s *DeepgramSuite) TestMissingKeyMakesNoCall() {
	_, _, err := s.backend("").Transcribe(context.Background(), "reunion.mp3", []byte("audio"))

	var configErr *model.ConfigurationError
	s.Require().True(errors.As(err, &configErr))
	s.Equal("DEEPGRAM_API_KEY", configErr.Setting)
	s.Zero(s.calls)
}

func (s *DeepgramSuite) TestMissingTranscriptField() {
	s.reply = `{"results":{"channels":[]}}`
	_, _, err := s.backend("dg-key").Transcribe(context.Background(), "reunion.mp3", []byte("audio"))
	s.Require().Error(err)
	s.Contains(err.Error(), deepgramTranscriptPath)
}

func (s *DeepgramSuite) TestErrorStatus() {
	s.status = http.StatusUnauthorized
	s.reply = `{"err_code":"INVALID_AUTH","err_msg":"Invalid credentials."}`
	_, _, err := s.backend("bad").Transcribe(context.Background(), "reunion.mp3", []byte("audio"))
	s.Require().Error(err)
	s.Contains(err.Error(), "401")
	s.Contains(err.Error(), "Invalid credentials.")
}
