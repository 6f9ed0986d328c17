package reading

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed templates/*
var embeddedTemplates embed.FS

const (
	systemFile      = "system.txt"
	subjectFile     = "subject.tmpl"
	photoFile       = "photo.txt"
	methodologyFile = "methodology.tmpl"
)

// Templates is the prompt wording. It is data: the embedded defaults can be
// replaced file by file from a directory without a rebuild.
type Templates struct {
	System           string
	Subject          *template.Template
	PhotoInstruction string
	Methodology      *template.Template
}

// DefaultTemplates returns the embedded prompt wording.
func DefaultTemplates() (Templates, error) {
	return LoadTemplates(nil)
}

// LoadTemplates reads each template from override when present there and
// falls back to the embedded copy otherwise. override may be nil.
func LoadTemplates(override fs.FS) (Templates, error) {
	read := func(name string) (string, error) {
		if override != nil {
			data, err := fs.ReadFile(override, name)
			if err == nil {
				return string(data), nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("read template %s: %w", name, err)
			}
		}
		data, err := embeddedTemplates.ReadFile("templates/" + name)
		if err != nil {
			return "", fmt.Errorf("read embedded template %s: %w", name, err)
		}
		return string(data), nil
	}

	var out Templates
	system, err := read(systemFile)
	if err != nil {
		return Templates{}, err
	}
	out.System = strings.TrimSpace(system)

	photo, err := read(photoFile)
	if err != nil {
		return Templates{}, err
	}
	out.PhotoInstruction = strings.TrimSpace(photo)

	subject, err := read(subjectFile)
	if err != nil {
		return Templates{}, err
	}
	if out.Subject, err = parseTemplate(subjectFile, subject); err != nil {
		return Templates{}, err
	}

	methodology, err := read(methodologyFile)
	if err != nil {
		return Templates{}, err
	}
	if out.Methodology, err = parseTemplate(methodologyFile, methodology); err != nil {
		return Templates{}, err
	}

	if out.System == "" {
		return Templates{}, errors.New("system prompt template is empty")
	}
	return out, nil
}

func parseTemplate(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return tmpl, nil
}
