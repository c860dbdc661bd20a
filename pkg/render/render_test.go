package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/minutes"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
)

type RenderSuite struct {
	suite.Suite
}

func TestRenderSuite(t *testing.T) {
	suite.Run(t, new(RenderSuite))
}

func sampleDocument() *minutes.Document {
	return minutes.Validate(map[string]any{
		"titulo_reunion": "Comité de Obras",
		"fecha_reunion":  "12 de marzo",
		"hora_inicio":    "10:00",
		"hora_fin":       "11:30",
		"participantes": []any{
			map[string]any{"nombre": "Ana", "rol": "Presidenta"},
			map[string]any{"nombre": "Luis", "rol": "No especificado"},
		},
		"temas_discutidos_y_puntos_clave": []any{
			map[string]any{
				"tema":             "Presupuesto",
				"responsable_tema": "Ana",
				"puntos_clave":     []any{"Recorte del 10%"},
			},
		},
		"decisiones_clave_tomadas": []any{
			map[string]any{"decision": "Aprobar el plan", "acordada_por": "Unanimidad"},
		},
		"tareas_pendientes": []any{
			map[string]any{"tarea": "Enviar el informe", "responsable": "Luis", "fecha_limite": "viernes"},
		},
	})
}

func (s *RenderSuite) TestPreviewLayout() {
	text := Preview(sampleDocument())

	s.True(strings.HasPrefix(text, "--- ACTA DE REUNIÓN ---\n\nTítulo: Comité de Obras\n"))
	s.Contains(text, "Fecha: 12 de marzo | Hora: 10:00 - 11:30")
	s.Contains(text, "Ubicación: N/A")
	s.Contains(text, "Participantes: Ana (Presidenta), Luis\n")
	s.Contains(text, NoAbsentees)
	s.Contains(text, "\n--- RESUMEN EJECUTIVO ---\nNo disponible.")
	s.Contains(text, NoObjectives)
	s.Contains(text, "  • **Presupuesto** (Liderado por: Ana)\n      - Recorte del 10%")
	s.Contains(text, "  • Decisión: Aprobar el plan\n    Acordada por: Unanimidad")
	s.Contains(text, "  • Tarea: Enviar el informe\n    Responsable: Luis\n    Fecha Límite: viernes")
	s.True(strings.HasSuffix(text, "--- DOCUMENTOS REFERENCIADOS ---\nNinguno."))
}

func (s *RenderSuite) TestPreviewMissingParticipants() {
	text := Preview(minutes.Validate(map[string]any{"titulo_reunion": "Sin lista"}))
	s.Contains(text, "Participantes: No identificados")
}

func (s *RenderSuite) TestPreviewEmptyActionItems() {
	doc := minutes.Validate(map[string]any{
		"titulo_reunion":    "Status Check",
		"tareas_pendientes": []any{},
	})
	text := Preview(doc)

	s.Contains(text, "Título: Status Check")
	s.Contains(text, "--- TAREAS PENDIENTES ---\nNo hay tareas pendientes identificadas.")
}

func (s *RenderSuite) TestPreviewIsDeterministic() {
	raw := map[string]any{
		"titulo_reunion": "Repetida",
		"objetivos_reunion": []any{
			"Uno",
			"Dos",
		},
	}
	first := Preview(minutes.Validate(raw))
	second := Preview(minutes.Validate(raw))
	s.Equal(first, second)
}

func (s *RenderSuite) TestPreviewFreeformIsUnchanged() {
	s.Equal("# Acta\n\n- punto", Preview(minutes.Freeform("# Acta\n\n- punto")))
	s.Equal("", Preview(nil))
}

func (s *RenderSuite) TestMarkdownHeadingAndBullets() {
	blocks, err := markdownBlocks("# Resumen\n\n- primero\n- segundo con **énfasis**\n  - anidado\n")
	s.Require().NoError(err)
	s.Require().Len(blocks, 4)

	s.Equal(blockSection, blocks[0].kind)
	s.Equal("Resumen", blocks[0].plainText())

	s.Equal(blockBullet, blocks[1].kind)
	s.Equal(1, blocks[1].indent)
	s.Equal("•", blocks[1].marker)
	s.Equal("primero", blocks[1].plainText())

	s.Equal(blockBullet, blocks[2].kind)
	s.Equal(1, blocks[2].indent)
	s.Require().Len(blocks[2].runs, 2)
	s.Equal(run{text: "énfasis", style: runStyle{bold: true}}, blocks[2].runs[1])

	s.Equal(blockBullet, blocks[3].kind)
	s.Equal(2, blocks[3].indent)
	s.Equal("anidado", blocks[3].plainText())
}

func (s *RenderSuite) TestMarkdownOrderedListAndDeepHeading() {
	blocks, err := markdownBlocks("### Tareas\n\n3. una\n4. otra\n\n---\n")
	s.Require().NoError(err)
	s.Require().Len(blocks, 4)

	s.Equal(blockHeading, blocks[0].kind)
	s.Equal(3, blocks[0].level)
	s.Equal("3.", blocks[1].marker)
	s.Equal("4.", blocks[2].marker)
	s.Equal(blockRule, blocks[3].kind)
}

func (s *RenderSuite) TestDocumentBlocksFollowPreviewOrder() {
	blocks := documentBlocks(sampleDocument())

	var sections []string
	for _, b := range blocks {
		if b.kind == blockSection {
			sections = append(sections, b.plainText())
		}
	}
	s.Equal([]string{
		SectionSummary, SectionObjectives, SectionTopics, SectionDecisions,
		SectionActions, SectionNextSteps, SectionNotes, SectionDocuments,
	}, sections)
}

func (s *RenderSuite) TestExportDocumentProducesPDF() {
	var buf bytes.Buffer
	err := Export(context.Background(), sampleDocument(), &buf)
	s.Require().NoError(err)
	s.True(bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func (s *RenderSuite) TestExportFreeformProducesPDF() {
	var buf bytes.Buffer
	err := Export(context.Background(), minutes.Freeform("## Acuerdos\n\n1. Aprobar\n\n```\ncódigo\n```\n"), &buf)
	s.Require().NoError(err)
	s.True(bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func (s *RenderSuite) TestExportFileWritesDestination() {
	path := filepath.Join(s.T().TempDir(), "acta.pdf")
	err := ExportFile(context.Background(), sampleDocument(), path)
	s.Require().NoError(err)

	info, err := os.Stat(path)
	s.Require().NoError(err)
	s.Positive(info.Size())
}

func (s *RenderSuite) TestExportFileUnwritableDestination() {
	path := filepath.Join(s.T().TempDir(), "missing", "dir", "acta.pdf")
	err := ExportFile(context.Background(), sampleDocument(), path)

	var exportErr *model.ExportError
	s.Require().True(errors.As(err, &exportErr))
	s.Equal(path, exportErr.Path)
}

func (s *RenderSuite) uncompressed() {
	compressPDF = false
	s.T().Cleanup(func() { compressPDF = true })
}

func (s *RenderSuite) TestExportFreeformFallsBackToVerbatim() {
	s.uncompressed()
	convertMarkdown = func(string) ([]block, error) {
		return nil, errors.New("conversion failed")
	}
	s.T().Cleanup(func() { convertMarkdown = markdownBlocks })

	var buf bytes.Buffer
	err := Export(context.Background(), minutes.Freeform("## Acuerdos\n\nTexto en **negrita**"), &buf)
	s.Require().NoError(err)
	s.True(bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	s.Contains(buf.String(), "## Acuerdos")
	s.Contains(buf.String(), "Texto en **negrita**")
}

var headerPattern = regexp.MustCompile(`BT ([0-9.]+) [0-9.]+ Td \(Acta de Reuni`)

func (s *RenderSuite) TestExportPaintsHeaderAndFooterOnEveryPage() {
	s.uncompressed()

	var source strings.Builder
	source.WriteString("# Puntos\n\n")
	for i := 1; i <= 300; i++ {
		fmt.Fprintf(&source, "- punto número %d\n", i)
	}

	var buf bytes.Buffer
	s.Require().NoError(Export(context.Background(), minutes.Freeform(source.String()), &buf))
	out := buf.String()

	headers := headerPattern.FindAllStringSubmatch(out, -1)
	pages := len(headers)
	s.Require().Greater(pages, 2)
	for _, h := range headers {
		s.Equal(headers[0][1], h[1], "header moved off its centred position")
	}
	for page := 1; page <= pages; page++ {
		s.Contains(out, fmt.Sprintf("gina %d/%d", page, pages))
	}
	s.NotContains(out, "{nb}")
}

func (s *RenderSuite) TestExportReplacesCharactersOutsideCodePage() {
	s.uncompressed()

	var buf bytes.Buffer
	err := Export(context.Background(), minutes.Freeform("Acuerdo cerrado 😀 世界"), &buf)
	s.Require().NoError(err)
	s.Contains(buf.String(), "Acuerdo cerrado")
	s.NotContains(buf.String(), "😀")
}
