package prompt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
)

type TemplateSuite struct {
	suite.Suite
}

func TestTemplateSuite(t *testing.T) {
	suite.Run(t, new(TemplateSuite))
}

func (s *TemplateSuite) TestRenderSubstitutesPlaceholders() {
	tmpl, err := Parse("inline", "Hoy {{.current_date}}. Contexto: {{.user_context}}\n{{.transcription_text}}")
	s.Require().NoError(err)

	out, err := tmpl.Render(model.Transcript("Ana: buenos días"), "Comité mensual", "2024-03-12")
	s.Require().NoError(err)
	s.Equal("Hoy 2024-03-12. Contexto: Comité mensual\nAna: buenos días", out)
}

func (s *TemplateSuite) TestBlankUserContextBecomesNone() {
	tmpl, err := Parse("inline", "[{{.user_context}}] {{.transcription_text}}")
	s.Require().NoError(err)

	out, err := tmpl.Render(model.Transcript("texto"), "   ", "2024-01-01")
	s.Require().NoError(err)
	s.Equal("[None.] texto", out)
}

func (s *TemplateSuite) TestRenderIsDeterministic() {
	tmpl, err := Parse("inline", "{{.current_date}} {{.transcription_text}}")
	s.Require().NoError(err)

	first, err := tmpl.Render("hola", "", "2024-01-01")
	s.Require().NoError(err)
	second, err := tmpl.Render("hola", "", "2024-01-01")
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *TemplateSuite) TestEmptyTranscriptIsRejected() {
	tmpl, err := Parse("inline", "{{.transcription_text}}")
	s.Require().NoError(err)

	_, err = tmpl.Render(" \n ", "", "2024-01-01")
	var templateErr *model.TemplateError
	s.True(errors.As(err, &templateErr))
}

func (s *TemplateSuite) TestMissingTranscriptionPlaceholder() {
	_, err := Parse("inline", "Sin marcador {{.user_context}}")
	var templateErr *model.TemplateError
	s.Require().True(errors.As(err, &templateErr))
	s.Contains(templateErr.Error(), FieldTranscription)
}

func (s *TemplateSuite) TestUnknownPlaceholder() {
	_, err := Parse("inline", "{{.transcription_text}} {{if .speaker}}{{.speaker}}{{end}}")
	var templateErr *model.TemplateError
	s.Require().True(errors.As(err, &templateErr))
	s.Contains(templateErr.Error(), "speaker")
}

func (s *TemplateSuite) TestLoadMissingFile() {
	_, err := Load(filepath.Join(s.T().TempDir(), "nope.tmpl"))
	var templateErr *model.TemplateError
	s.True(errors.As(err, &templateErr))
}

func (s *TemplateSuite) TestShippedTemplatesLoad() {
	for _, name := range []string{"minutes_json.tmpl", "minutes_markdown.tmpl"} {
		path := filepath.Join("..", "..", "prompts", name)
		_, statErr := os.Stat(path)
		s.Require().NoError(statErr)

		tmpl, err := Load(path)
		s.Require().NoError(err, name)

		out, err := tmpl.RenderNow("Ana: empezamos", "")
		s.Require().NoError(err)
		s.Contains(out, "Ana: empezamos")
		s.Contains(out, NoUserContext)
	}
}
