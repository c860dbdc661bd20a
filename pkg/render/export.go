package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/minutes"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

const (
	// PageHeader is printed centered at the top of every page.
	PageHeader = "Acta de Reunión"

	fontFamily = "Arial"
	codeFamily = "Courier"
	lineHeight = 5.5
	indentStep = 6.0
)

var (
	convertMarkdown = markdownBlocks
	compressPDF     = true
)

// ExportFile writes content as a PDF to path. Any failure to produce or write
// the file is returned as *model.ExportError.
func ExportFile(ctx context.Context, content minutes.Content, path string) error {
	log := logging.NewLogger(ctx).WithField("path", path)

	var buf bytes.Buffer
	if err := Export(ctx, content, &buf); err != nil {
		return &model.ExportError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &model.ExportError{Path: path, Err: utils.WrapIfNotNil(err)}
	}

	log.Infof("exported minutes (%d bytes)", buf.Len())
	return nil
}

// Export renders content as a paginated A4 PDF. A Document is laid out
// section by section; a Freeform document is interpreted as markdown and,
// if that fails, printed verbatim. Text is set in the core PDF fonts, so
// characters outside Windows-1252 (emoji, CJK) are replaced.
func Export(ctx context.Context, content minutes.Content, w io.Writer) error {
	switch c := content.(type) {
	case *minutes.Document:
		if c == nil {
			return errors.New("nothing to export")
		}
		pdf := newPDF()
		paintBlocks(pdf, documentBlocks(c))
		return pdf.Output(w)

	case minutes.Freeform:
		pdf, err := markdownPDF(string(c))
		if err != nil {
			logging.NewLogger(ctx).Warnf("markdown layout failed, exporting text verbatim: %v", err)
			pdf = newPDF()
			paintVerbatim(pdf, string(c))
		}
		return pdf.Output(w)

	default:
		return fmt.Errorf("unsupported content type %T", content)
	}
}

func markdownPDF(source string) (*fpdf.Fpdf, error) {
	blocks, err := convertMarkdown(source)
	if err != nil {
		return nil, err
	}
	pdf := newPDF()
	paintBlocks(pdf, blocks)
	if pdf.Err() {
		return nil, pdf.Error()
	}
	return pdf, nil
}

func newPDF() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compressPDF)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	left, _, _, _ := pdf.GetMargins()

	pdf.SetHeaderFunc(func() {
		atPageMargin(pdf, left, func() {
			pdf.SetX(left)
			pdf.SetFont(fontFamily, "B", 15)
			pdf.CellFormat(0, 10, tr(PageHeader), "", 1, "C", false, 0, "")
			pdf.Ln(5)
		})
	})
	pdf.SetFooterFunc(func() {
		atPageMargin(pdf, left, func() {
			pdf.SetY(-15)
			pdf.SetFont(fontFamily, "I", 8)
			pdf.CellFormat(0, 10, tr(fmt.Sprintf("Página %d/{nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
		})
	})
	pdf.AliasNbPages("")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	return pdf
}

// atPageMargin runs paint with the page's own left margin. A page break can
// fire while an indented block has moved the margin.
func atPageMargin(pdf *fpdf.Fpdf, left float64, paint func()) {
	current, _, _, _ := pdf.GetMargins()
	pdf.SetLeftMargin(left)
	paint()
	pdf.SetLeftMargin(current)
}

func paintBlocks(pdf *fpdf.Fpdf, blocks []block) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	left, _, right, _ := pdf.GetMargins()
	pageWidth, _ := pdf.GetPageSize()

	for _, b := range blocks {
		switch b.kind {
		case blockSection:
			pdf.Ln(3)
			pdf.SetFillColor(230, 230, 230)
			pdf.SetFont(fontFamily, "B", 12)
			pdf.CellFormat(0, 8, tr(b.plainText()), "", 1, "L", true, 0, "")
			pdf.Ln(2)

		case blockHeading:
			size := 14.0
			if b.level > 1 {
				size = 12
			}
			pdf.SetFont(fontFamily, "B", size)
			pdf.MultiCell(0, 7, tr(b.plainText()), "", "L", false)
			pdf.Ln(1)

		case blockParagraph, blockBullet:
			x := left + float64(b.indent)*indentStep
			pdf.SetLeftMargin(x)
			pdf.SetX(x)
			if b.kind == blockBullet {
				pdf.SetFont(fontFamily, "", 11)
				pdf.Write(lineHeight, tr(b.marker+" "))
			}
			for _, r := range b.runs {
				setRunFont(pdf, r.style)
				pdf.Write(lineHeight, tr(r.text))
			}
			pdf.Ln(lineHeight)
			if b.kind == blockParagraph {
				pdf.Ln(1)
			}
			pdf.SetLeftMargin(left)

		case blockCode:
			x := left + float64(b.indent)*indentStep
			pdf.SetLeftMargin(x)
			pdf.SetX(x)
			pdf.SetFont(codeFamily, "", 9)
			pdf.MultiCell(0, 4.5, tr(b.plainText()), "", "L", false)
			pdf.Ln(1)
			pdf.SetLeftMargin(left)

		case blockRule:
			y := pdf.GetY() + 2
			pdf.Line(left, y, pageWidth-right, y)
			pdf.Ln(4)
		}
	}
}

func setRunFont(pdf *fpdf.Fpdf, style runStyle) {
	if style.code {
		pdf.SetFont(codeFamily, "", 10)
		return
	}
	fontStyle := ""
	if style.bold {
		fontStyle += "B"
	}
	if style.italic {
		fontStyle += "I"
	}
	pdf.SetFont(fontFamily, fontStyle, 11)
}

// paintVerbatim prints text as plain paragraphs, one per blank-line block.
func paintVerbatim(pdf *fpdf.Fpdf, text string) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont(fontFamily, "", 11)
	for _, chunk := range strings.Split(text, "\n\n") {
		pdf.MultiCell(0, lineHeight, tr(strings.TrimRight(chunk, "\n")), "", "L", false)
		pdf.Ln(2)
	}
}
