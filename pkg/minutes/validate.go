package minutes

import (
	"encoding/json"
	"errors"
	"strings"
)

// Validate maps a decoded model reply onto a fully defaulted Document. It
// never fails: a key with the wrong shape is treated as absent, list entries
// with the wrong shape are skipped, and nothing is coerced. Blank strings
// count as absent, both as scalars and as list entries. A nil map yields
// a document made only of defaults.
func Validate(raw map[string]any) *Document {
	doc := &Document{
		Title:               stringOr(raw, "titulo_reunion", DefaultText),
		Date:                stringOr(raw, "fecha_reunion", DefaultText),
		StartTime:           stringOr(raw, "hora_inicio", DefaultText),
		EndTime:             stringOr(raw, "hora_fin", DefaultText),
		Location:            stringOr(raw, "ubicacion", DefaultText),
		ExecutiveSummary:    stringOr(raw, "resumen_ejecutivo", DefaultSummary),
		Objectives:          stringList(raw["objetivos_reunion"]),
		NextSteps:           stringOr(raw, "proximos_pasos_o_siguiente_reunion", DefaultNextSteps),
		AdditionalNotes:     stringOr(raw, "notas_adicionales", DefaultNotes),
		ReferencedDocuments: stringList(raw["documentos_referenciados"]),
	}

	for _, item := range objectList(raw["participantes"]) {
		doc.Participants = append(doc.Participants, Participant{
			Name: stringOr(item, "nombre", DefaultParticipantName),
			Role: stringOr(item, "rol", ""),
		})
	}
	for _, item := range objectList(raw["ausentes"]) {
		doc.Absentees = append(doc.Absentees, Absentee{
			Name:   stringOr(item, "nombre", DefaultParticipantName),
			Reason: stringOr(item, "motivo_ausencia", ""),
		})
	}
	for _, item := range objectList(raw["temas_discutidos_y_puntos_clave"]) {
		doc.Topics = append(doc.Topics, Topic{
			Topic:     stringOr(item, "tema", DefaultText),
			LedBy:     stringOr(item, "responsable_tema", ""),
			KeyPoints: stringList(item["puntos_clave"]),
		})
	}
	for _, item := range objectList(raw["decisiones_clave_tomadas"]) {
		doc.Decisions = append(doc.Decisions, Decision{
			Decision: stringOr(item, "decision", DefaultText),
			AgreedBy: stringOr(item, "acordada_por", DefaultAgreedBy),
		})
	}
	for _, item := range objectList(raw["tareas_pendientes"]) {
		doc.ActionItems = append(doc.ActionItems, ActionItem{
			Task:    stringOr(item, "tarea", DefaultText),
			Owner:   stringOr(item, "responsable", DefaultText),
			DueDate: stringOr(item, "fecha_limite", DefaultText),
		})
	}

	return doc
}

// ParseStrict decodes a single JSON object and validates it. It is the
// offline counterpart of the strict dispatch policy, used for saved replies.
func ParseStrict(raw string) (*Document, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("document is empty")
	}
	var object map[string]any
	if err := json.Unmarshal([]byte(trimmed), &object); err != nil {
		return nil, err
	}
	return Validate(object), nil
}

// stringOr returns raw[key] when it is a non-blank string.
func stringOr(raw map[string]any, key string, fallback string) string {
	value, ok := raw[key].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func stringList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func objectList(value any) []map[string]any {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		object, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, object)
	}
	return out
}
