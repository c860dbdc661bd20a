// Package prompt loads and renders the prompt templates that wrap a
// transcript before it is sent to a generation backend.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"text/template/parse"
	"time"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
)

const (
	FieldTranscription = "transcription_text"
	FieldUserContext   = "user_context"
	FieldCurrentDate   = "current_date"

	// NoUserContext replaces a blank user context.
	NoUserContext = "None."

	// DateLayout is the format of current_date.
	DateLayout = "2006-01-02"
)

var knownFields = map[string]bool{
	FieldTranscription: true,
	FieldUserContext:   true,
	FieldCurrentDate:   true,
}

// Template is a validated prompt template. It is immutable after Load and
// safe to share between invocations.
type Template struct {
	path string
	tmpl *template.Template
}

// Load reads and validates the template at path. The template must reference
// {{.transcription_text}} and may only reference the three known fields.
func Load(path string) (*Template, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.TemplateError{Path: path, Err: err}
	}
	return Parse(path, string(content))
}

// Parse validates an in-memory template; name is used in errors only.
func Parse(name string, text string) (*Template, error) {
	tmpl, err := template.New(filepath.Base(name)).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, &model.TemplateError{Path: name, Err: err}
	}

	fields := map[string]bool{}
	if tmpl.Tree != nil && tmpl.Tree.Root != nil {
		collectFields(tmpl.Tree.Root, fields)
	}
	for field := range fields {
		if !knownFields[field] {
			return nil, &model.TemplateError{Path: name, Err: fmt.Errorf("unknown placeholder %q", field)}
		}
	}
	if !fields[FieldTranscription] {
		return nil, &model.TemplateError{Path: name, Err: fmt.Errorf("placeholder %q is missing", FieldTranscription)}
	}

	return &Template{path: name, tmpl: tmpl}, nil
}

func (t *Template) Path() string {
	return t.path
}

// Render substitutes the placeholders. A blank userContext becomes "None.".
func (t *Template) Render(transcript model.Transcript, userContext string, currentDate string) (string, error) {
	if strings.TrimSpace(transcript.String()) == "" {
		return "", &model.TemplateError{Path: t.path, Err: errors.New("transcript is empty")}
	}
	if strings.TrimSpace(userContext) == "" {
		userContext = NoUserContext
	}

	data := map[string]string{
		FieldTranscription: transcript.String(),
		FieldUserContext:   userContext,
		FieldCurrentDate:   currentDate,
	}

	var b strings.Builder
	if err := t.tmpl.Execute(&b, data); err != nil {
		return "", &model.TemplateError{Path: t.path, Err: err}
	}
	return b.String(), nil
}

// RenderNow renders with today's date in YYYY-MM-DD form.
func (t *Template) RenderNow(transcript model.Transcript, userContext string) (string, error) {
	return t.Render(transcript, userContext, time.Now().Format(DateLayout))
}

func collectFields(node parse.Node, fields map[string]bool) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			collectFields(child, fields)
		}
	case *parse.ActionNode:
		collectFields(n.Pipe, fields)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			collectFields(cmd, fields)
		}
	case *parse.CommandNode:
		for _, arg := range n.Args {
			collectFields(arg, fields)
		}
	case *parse.FieldNode:
		if len(n.Ident) > 0 {
			fields[n.Ident[0]] = true
		}
	case *parse.ChainNode:
		collectFields(n.Node, fields)
	case *parse.IfNode:
		collectBranch(&n.BranchNode, fields)
	case *parse.RangeNode:
		collectBranch(&n.BranchNode, fields)
	case *parse.WithNode:
		collectBranch(&n.BranchNode, fields)
	case *parse.TemplateNode:
		collectFields(n.Pipe, fields)
	}
}

func collectBranch(n *parse.BranchNode, fields map[string]bool) {
	collectFields(n.Pipe, fields)
	collectFields(n.List, fields)
	collectFields(n.ElseList, fields)
}
