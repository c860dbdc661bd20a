// Package render turns minutes content into a plain-text preview and a
// paginated PDF.
package render

import (
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/minutes"
)

const (
	previewBanner = "--- ACTA DE REUNIÓN ---"

	SectionSummary    = "RESUMEN EJECUTIVO"
	SectionObjectives = "OBJETIVOS DE LA REUNIÓN"
	SectionTopics     = "TEMAS DISCUTIDOS Y PUNTOS CLAVE"
	SectionDecisions  = "DECISIONES CLAVE TOMADAS"
	SectionActions    = "TAREAS PENDIENTES"
	SectionNextSteps  = "PRÓXIMOS PASOS O SIGUIENTE REUNIÓN"
	SectionNotes      = "NOTAS ADICIONALES"
	SectionDocuments  = "DOCUMENTOS REFERENCIADOS"

	NoParticipants = "Participantes: No identificados"
	NoAbsentees    = "Ausentes: Ninguno"
	NoObjectives   = "No hay objetivos de reunión identificados."
	NoTopics       = "No hay temas discutidos identificados."
	NoDecisions    = "No hay decisiones clave identificadas."
	NoActionItems  = "No hay tareas pendientes identificadas."
	NoDocuments    = "Ninguno."
)

// Preview renders content as deterministic plain text. A Freeform document is
// already presentable and is returned unchanged.
func Preview(content minutes.Content) string {
	switch c := content.(type) {
	case *minutes.Document:
		if c == nil {
			return ""
		}
		return previewDocument(c)
	case minutes.Freeform:
		return string(c)
	default:
		return ""
	}
}

func previewDocument(d *minutes.Document) string {
	out := make([]string, 0, 64)
	out = append(out, previewBanner)

	out = append(out, "\nTítulo: "+d.Title)
	out = append(out, fmt.Sprintf("Fecha: %s | Hora: %s - %s", d.Date, d.StartTime, d.EndTime))
	out = append(out, "Ubicación: "+d.Location)
	out = append(out, participantsLine(d.Participants))
	out = append(out, absenteesLine(d.Absentees))

	out = append(out, sectionHeading(SectionSummary), d.ExecutiveSummary)

	out = append(out, sectionHeading(SectionObjectives))
	if len(d.Objectives) == 0 {
		out = append(out, NoObjectives)
	}
	for _, objective := range d.Objectives {
		out = append(out, "  • "+objective)
	}

	out = append(out, sectionHeading(SectionTopics))
	if len(d.Topics) == 0 {
		out = append(out, NoTopics)
	}
	for _, topic := range d.Topics {
		line := "  • **" + topic.Topic + "**"
		if topic.LedBy != "" {
			line += " (Liderado por: " + topic.LedBy + ")"
		}
		out = append(out, line)
		for _, point := range topic.KeyPoints {
			out = append(out, "      - "+point)
		}
	}

	out = append(out, sectionHeading(SectionDecisions))
	if len(d.Decisions) == 0 {
		out = append(out, NoDecisions)
	}
	for _, decision := range d.Decisions {
		out = append(out, fmt.Sprintf("  • Decisión: %s\n    Acordada por: %s", decision.Decision, decision.AgreedBy))
	}

	out = append(out, sectionHeading(SectionActions))
	if len(d.ActionItems) == 0 {
		out = append(out, NoActionItems)
	}
	for _, item := range d.ActionItems {
		out = append(out, fmt.Sprintf(
			"  • Tarea: %s\n    Responsable: %s\n    Fecha Límite: %s",
			item.Task, item.Owner, item.DueDate,
		))
	}

	out = append(out, sectionHeading(SectionNextSteps), d.NextSteps)
	out = append(out, sectionHeading(SectionNotes), d.AdditionalNotes)

	out = append(out, sectionHeading(SectionDocuments))
	if len(d.ReferencedDocuments) == 0 {
		out = append(out, NoDocuments)
	}
	for _, doc := range d.ReferencedDocuments {
		out = append(out, "  • "+doc)
	}

	return strings.Join(out, "\n")
}

func sectionHeading(title string) string {
	return "\n--- " + title + " ---"
}

func participantsLine(participants []minutes.Participant) string {
	if len(participants) == 0 {
		return NoParticipants
	}
	names := make([]string, 0, len(participants))
	for _, p := range participants {
		name := p.Name
		if p.HasRole() {
			name += " (" + p.Role + ")"
		}
		names = append(names, name)
	}
	return "Participantes: " + strings.Join(names, ", ")
}

func absenteesLine(absentees []minutes.Absentee) string {
	if len(absentees) == 0 {
		return NoAbsentees
	}
	names := make([]string, 0, len(absentees))
	for _, a := range absentees {
		name := a.Name
		if a.Reason != "" {
			name += " (" + a.Reason + ")"
		}
		names = append(names, name)
	}
	return "Ausentes: " + strings.Join(names, ", ")
}
