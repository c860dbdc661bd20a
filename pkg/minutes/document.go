// Package minutes holds the canonical meeting-minutes record and the mapping
// from a loosely typed model reply into it.
package minutes

import (
	"strings"
	"unicode"
)

// Defaults substituted for fields the model left out.
const (
	DefaultText            = "N/A"
	DefaultParticipantName = "Desconocido"
	DefaultSummary         = "No disponible."
	DefaultAgreedBy        = "No especificado"
	DefaultNextSteps       = "No especificado."
	DefaultNotes           = "Ninguna."

	// RoleUnspecified is what models write when no role was mentioned.
	RoleUnspecified = "No especificado"

	defaultFilename = "Acta_Reunion"
)

// Content is either a *Document or a Freeform text.
type Content interface {
	isContent()
}

// Freeform is an opaque markdown document produced under the freeform contract.
type Freeform string

func (Freeform) isContent() {}

type Participant struct {
	Name string `json:"nombre" jsonschema:"description=Nombre del participante"`
	Role string `json:"rol" jsonschema:"description=Rol o cargo del participante o cadena vacía"`
}

type Absentee struct {
	Name   string `json:"nombre" jsonschema:"description=Nombre de la persona ausente"`
	Reason string `json:"motivo_ausencia" jsonschema:"description=Motivo de la ausencia o cadena vacía"`
}

type Topic struct {
	Topic     string   `json:"tema" jsonschema:"description=Tema tratado"`
	LedBy     string   `json:"responsable_tema" jsonschema:"description=Quién lideró el tema o cadena vacía"`
	KeyPoints []string `json:"puntos_clave" jsonschema:"description=Puntos clave en orden de discusión"`
}

type Decision struct {
	Decision string `json:"decision" jsonschema:"description=Decisión tomada"`
	AgreedBy string `json:"acordada_por" jsonschema:"description=Quién acordó la decisión"`
}

type ActionItem struct {
	Task    string `json:"tarea" jsonschema:"description=Tarea pendiente"`
	Owner   string `json:"responsable" jsonschema:"description=Responsable de la tarea"`
	DueDate string `json:"fecha_limite" jsonschema:"description=Fecha límite tal como se mencionó"`
}

// Document is the structured minutes record. Lists keep discussion order.
type Document struct {
	Title               string        `json:"titulo_reunion" jsonschema:"description=Título de la reunión"`
	Date                string        `json:"fecha_reunion" jsonschema:"description=Fecha de la reunión o no especificado"`
	StartTime           string        `json:"hora_inicio"`
	EndTime             string        `json:"hora_fin"`
	Location            string        `json:"ubicacion"`
	Participants        []Participant `json:"participantes"`
	Absentees           []Absentee    `json:"ausentes"`
	ExecutiveSummary    string        `json:"resumen_ejecutivo"`
	Objectives          []string      `json:"objetivos_reunion"`
	Topics              []Topic       `json:"temas_discutidos_y_puntos_clave"`
	Decisions           []Decision    `json:"decisiones_clave_tomadas"`
	ActionItems         []ActionItem  `json:"tareas_pendientes"`
	NextSteps           string        `json:"proximos_pasos_o_siguiente_reunion"`
	AdditionalNotes     string        `json:"notas_adicionales"`
	ReferencedDocuments []string      `json:"documentos_referenciados"`
}

func (*Document) isContent() {}

// HasRole reports whether the participant carries a meaningful role.
func (p Participant) HasRole() bool {
	return p.Role != "" && p.Role != RoleUnspecified
}

// SuggestedFilename derives a PDF file name from the title, keeping letters,
// digits, spaces and underscores.
func (d *Document) SuggestedFilename() string {
	title := ""
	if d != nil && d.Title != DefaultText {
		title = d.Title
	}

	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' {
			b.WriteRune(r)
		}
	}
	name := strings.TrimRight(b.String(), " ")
	if strings.TrimSpace(name) == "" {
		name = defaultFilename
	}
	return strings.ReplaceAll(name, " ", "_") + ".pdf"
}
