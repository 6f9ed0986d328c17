package reading

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// Composer turns a validated request plus the resolved astronomy into the
// three segment prompt. It performs no I/O.
type Composer struct {
	templates Templates
	system    string
}

// NewComposer builds a composer. A non-blank systemOverride replaces the
// persona text of the templates.
func NewComposer(t Templates, systemOverride string) (*Composer, error) {
	if t.Subject == nil || t.Methodology == nil {
		return nil, errors.New("reading templates are incomplete")
	}
	system := t.System
	if override := strings.TrimSpace(systemOverride); override != "" {
		system = override
	}
	return &Composer{templates: t, system: system}, nil
}

type templateData struct {
	Location            string
	Date                string
	TimeOfDay           TimeOfDay
	Sunrise             string
	Sunset              string
	Latitude            float64
	Longitude           float64
	CoordinatesResolved bool
}

// Compose renders the persona, the subject block and the methodology block.
func (c *Composer) Compose(req BirthRequest, coords GeoCoordinates, solar SolarTimes) (Prompt, error) {
	data := templateData{
		Location:            req.Location,
		Date:                req.Date,
		TimeOfDay:           req.TimeOfDay,
		Sunrise:             solar.Sunrise,
		Sunset:              solar.Sunset,
		Latitude:            coords.Latitude,
		Longitude:           coords.Longitude,
		CoordinatesResolved: coords.Resolved,
	}

	subject, err := render(c.templates.Subject, data)
	if err != nil {
		return Prompt{}, err
	}
	methodology, err := render(c.templates.Methodology, data)
	if err != nil {
		return Prompt{}, err
	}

	user := PromptMessage{Role: RoleUser}
	switch {
	case req.Method == MethodPhotoUpload && req.Photo != nil:
		user.Text = subject + "\n\n" + c.templates.PhotoInstruction
		user.Image = &ImageRef{
			MimeType: req.Photo.MimeType,
			DataURI:  "data:" + req.Photo.MimeType + ";base64," + base64.StdEncoding.EncodeToString(req.Photo.Data),
		}
	case req.PhysicalDescription != "":
		user.Text = subject + "\nPhysical Description:\n" + req.PhysicalDescription + "\n"
	case req.PhysicalAttributes != nil:
		user.Text = subject + "\nPhysical Attributes:\n" + formatAttributes(req.PhysicalAttributes)
	default:
		user.Text = subject
	}

	return Prompt{Messages: []PromptMessage{
		{Role: RoleSystem, Text: c.system},
		user,
		{Role: RoleUser, Text: strings.TrimSpace(methodology)},
	}}, nil
}

func render(tmpl *template.Template, data templateData) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}

func formatAttributes(a *PhysicalAttributes) string {
	var b strings.Builder
	line := func(label, value string) {
		if value != "" {
			b.WriteString(label + ": " + value + "\n")
		}
	}
	line("Body Type", a.BodyType)
	line("Face Shape", a.FaceShape)
	line("Eyes", a.Eyes)
	line("Hair", a.Hair)
	line("Skin", a.Skin)
	return b.String()
}
