package render

import (
	"fmt"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/minutes"
)

type blockKind int

const (
	blockSection blockKind = iota
	blockHeading
	blockParagraph
	blockBullet
	blockCode
	blockRule
)

type runStyle struct {
	bold   bool
	italic bool
	code   bool
}

type run struct {
	text  string
	style runStyle
}

// block is one paintable unit of the export layout. indent counts list
// levels; marker is the bullet or ordinal printed before bullet runs.
type block struct {
	kind   blockKind
	level  int
	indent int
	marker string
	runs   []run
}

func (b block) plainText() string {
	out := ""
	for _, r := range b.runs {
		out += r.text
	}
	return out
}

func plain(text string) run {
	return run{text: text}
}

func bold(text string) run {
	return run{text: text, style: runStyle{bold: true}}
}

func section(title string) block {
	return block{kind: blockSection, runs: []run{plain(title)}}
}

func paragraph(indent int, runs ...run) block {
	return block{kind: blockParagraph, indent: indent, runs: runs}
}

func bullet(indent int, marker string, runs ...run) block {
	return block{kind: blockBullet, indent: indent, marker: marker, runs: runs}
}

// documentBlocks lays a Document out in the same section order as Preview.
func documentBlocks(d *minutes.Document) []block {
	blocks := make([]block, 0, 64)

	blocks = append(blocks,
		block{kind: blockHeading, level: 1, runs: []run{plain(d.Title)}},
		paragraph(0, bold("Fecha: "), plain(fmt.Sprintf("%s | Hora: %s - %s", d.Date, d.StartTime, d.EndTime))),
		paragraph(0, bold("Ubicación: "), plain(d.Location)),
		labelled(participantsLine(d.Participants)),
		labelled(absenteesLine(d.Absentees)),
	)

	blocks = append(blocks, section(SectionSummary), paragraph(0, plain(d.ExecutiveSummary)))

	blocks = append(blocks, section(SectionObjectives))
	if len(d.Objectives) == 0 {
		blocks = append(blocks, paragraph(0, plain(NoObjectives)))
	}
	for _, objective := range d.Objectives {
		blocks = append(blocks, bullet(1, "•", plain(objective)))
	}

	blocks = append(blocks, section(SectionTopics))
	if len(d.Topics) == 0 {
		blocks = append(blocks, paragraph(0, plain(NoTopics)))
	}
	for _, topic := range d.Topics {
		runs := []run{bold(topic.Topic)}
		if topic.LedBy != "" {
			runs = append(runs, plain(" (Liderado por: "+topic.LedBy+")"))
		}
		blocks = append(blocks, bullet(1, "•", runs...))
		for _, point := range topic.KeyPoints {
			blocks = append(blocks, bullet(2, "-", plain(point)))
		}
	}

	blocks = append(blocks, section(SectionDecisions))
	if len(d.Decisions) == 0 {
		blocks = append(blocks, paragraph(0, plain(NoDecisions)))
	}
	for _, decision := range d.Decisions {
		blocks = append(blocks,
			bullet(1, "•", bold("Decisión: "), plain(decision.Decision)),
			paragraph(2, bold("Acordada por: "), plain(decision.AgreedBy)),
		)
	}

	blocks = append(blocks, section(SectionActions))
	if len(d.ActionItems) == 0 {
		blocks = append(blocks, paragraph(0, plain(NoActionItems)))
	}
	for _, item := range d.ActionItems {
		blocks = append(blocks,
			bullet(1, "•", bold("Tarea: "), plain(item.Task)),
			paragraph(2, bold("Responsable: "), plain(item.Owner)),
			paragraph(2, bold("Fecha Límite: "), plain(item.DueDate)),
		)
	}

	blocks = append(blocks, section(SectionNextSteps), paragraph(0, plain(d.NextSteps)))
	blocks = append(blocks, section(SectionNotes), paragraph(0, plain(d.AdditionalNotes)))

	blocks = append(blocks, section(SectionDocuments))
	if len(d.ReferencedDocuments) == 0 {
		blocks = append(blocks, paragraph(0, plain(NoDocuments)))
	}
	for _, doc := range d.ReferencedDocuments {
		blocks = append(blocks, bullet(1, "•", plain(doc)))
	}

	return blocks
}

// labelled splits "Label: value" lines so the label prints bold.
func labelled(line string) block {
	for i := 0; i+1 < len(line); i++ {
		if line[i] == ':' && line[i+1] == ' ' {
			return paragraph(0, bold(line[:i+2]), plain(line[i+2:]))
		}
	}
	return paragraph(0, plain(line))
}
