package pipeline

import (
	"fmt"
	"strings"

	"github.com/docxer/docxer/internal/llm"
	"github.com/docxer/docxer/internal/render"
	"github.com/docxer/docxer/internal/session"
)

// Kind is what a task documents.
type Kind string

const (
	KindFile  Kind = "file"
	KindReact Kind = "react"
	KindNode  Kind = "node"
)

// Request carries everything a worker needs to document one upload.
type Request struct {
	Kind Kind `json:"kind"`

	// Filename is the single source file, or the React component / Node
	// server entry point for project uploads.
	Filename string `json:"filename"`
	Code     string `json:"-"`

	PackageJSON string           `json:"-"`
	ProjectName string           `json:"project_name,omitempty"`
	Extras      []llm.SourceFile `json:"-"`
}

// FileRequest documents a single source file.
func FileRequest(filename, code string) Request {
	return Request{Kind: KindFile, Filename: filename, Code: code}
}

// FromSession builds the request for a completed project session.
func FromSession(s *session.Session) (Request, error) {
	if !s.Ready() {
		return Request{}, fmt.Errorf("session %s is missing required files", s.ID)
	}
	req := Request{PackageJSON: s.PackageJSON, ProjectName: s.ProjectName}
	switch s.Kind {
	case session.KindReact:
		req.Kind = KindReact
		req.Filename = s.Component.Name
		req.Code = s.Component.Content
	case session.KindNode:
		req.Kind = KindNode
		req.Filename = s.Server.Name
		req.Code = s.Server.Content
		for _, f := range s.Extras {
			req.Extras = append(req.Extras, llm.SourceFile{Name: f.Name, Content: f.Content})
		}
	default:
		return Request{}, fmt.Errorf("unknown session kind %q", s.Kind)
	}
	return req, nil
}

// Prompt builds the LLM prompt for the request.
func (r Request) Prompt() string {
	switch r.Kind {
	case KindReact:
		return llm.BuildReactPrompt(r.PackageJSON, r.Filename, r.Code)
	case KindNode:
		return llm.BuildNodePrompt(r.PackageJSON, r.Filename, r.Code, r.Extras)
	default:
		return llm.BuildFilePrompt(r.Filename, r.Code)
	}
}

// Metadata names the rendered document.
func (r Request) Metadata() render.Metadata {
	meta := render.Metadata{Source: r.Filename}
	switch r.Kind {
	case KindReact:
		meta.Title = "React Component Documentation"
	case KindNode:
		meta.Title = "Node.js Backend Documentation"
	}
	if name := strings.TrimSpace(r.ProjectName); name != "" {
		meta.GeneratedBy = render.DefaultGeneratedBy + " of " + name
	}
	return meta
}
