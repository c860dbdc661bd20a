package transcription

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
)

type fakeBackend struct {
	calls int
	data  []byte
	text  string
	err   error
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Transcribe(_ context.Context, _ string, data []byte) (string, model.GenerationMetadata, error) {
	f.calls++
	f.data = data
	return f.text, model.GenerationMetadata{}, f.err
}

type GatewaySuite struct {
	suite.Suite
	dir     string
	backend *fakeBackend
	gateway *Gateway
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.backend = &fakeBackend{}
	s.gateway = NewGateway(s.backend)
}

func (s *GatewaySuite) writeFile(name string, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *GatewaySuite) TestMissingFileNeverReachesBackend() {
	path := filepath.Join(s.dir, "nope.mp3")

	_, err := s.gateway.Transcribe(context.Background(), path)
	var notFound *model.NotFoundError
	s.Require().True(errors.As(err, &notFound))
	s.Equal(path, notFound.Path)
	s.Zero(s.backend.calls)
}

func (s *GatewaySuite) TestForwardsWholeFileAndTrims() {
	path := s.writeFile("reunion.mp3", "audio-bytes")
	s.backend.text = "  Ana: buenos días a todos, empezamos con el seguimiento del proyecto.  \n"

	transcript, err := s.gateway.Transcribe(context.Background(), path)
	s.Require().NoError(err)
	s.Equal(model.Transcript("Ana: buenos días a todos, empezamos con el seguimiento del proyecto."), transcript)
	s.Equal([]byte("audio-bytes"), s.backend.data)
}

func (s *GatewaySuite) TestShortTranscriptIsReturned() {
	path := s.writeFile("corto.wav", "x")
	s.backend.text = "Hola."

	transcript, err := s.gateway.Transcribe(context.Background(), path)
	s.Require().NoError(err)
	s.True(transcript.IsSuspiciouslyShort())
}

func (s *GatewaySuite) TestEmptyTranscriptIsAnError() {
	path := s.writeFile("silencio.wav", "x")
	s.backend.text = "   "

	_, err := s.gateway.Transcribe(context.Background(), path)
	var transcriptionErr *model.TranscriptionError
	s.Require().True(errors.As(err, &transcriptionErr))
	s.ErrorIs(err, ErrEmptyTranscript)
	s.Equal("fake", transcriptionErr.Backend)
}

func (s *GatewaySuite) TestBackendFailureIsWrapped() {
	path := s.writeFile("reunion.mp4", "x")
	s.backend.err = errors.New("connection refused")

	_, err := s.gateway.Transcribe(context.Background(), path)
	var transcriptionErr *model.TranscriptionError
	s.Require().True(errors.As(err, &transcriptionErr))
	s.Contains(err.Error(), "connection refused")
}

func (s *GatewaySuite) TestConfigurationErrorPassesThrough() {
	path := s.writeFile("reunion.mp4", "x")
	s.backend.err = &model.ConfigurationError{Component: "fake", Setting: "FAKE_KEY"}

	_, err := s.gateway.Transcribe(context.Background(), path)
	var configErr *model.ConfigurationError
	s.Require().True(errors.As(err, &configErr))
	var transcriptionErr *model.TranscriptionError
	s.False(errors.As(err, &transcriptionErr))
}

func (s *GatewaySuite) TestDirectoryIsNotFound() {
	_, err := s.gateway.Transcribe(context.Background(), s.dir)
	var notFound *model.NotFoundError
	s.True(errors.As(err, &notFound))
	s.Zero(s.backend.calls)
}
