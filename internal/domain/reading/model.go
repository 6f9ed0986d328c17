package reading

import (
	"strings"
	"time"

	"github.com/yanqian/astro-clock/pkg/metrics"
)

// Method tells how the physical traits were supplied.
type Method string

const (
	MethodManual      Method = "manual"
	MethodPhotoUpload Method = "upload"
)

// TimeOfDay is the self-reported birth window bucket.
type TimeOfDay string

const (
	TimeEarlyMorning TimeOfDay = "earlyMorning"
	TimeMorning      TimeOfDay = "morning"
	TimeAfternoon    TimeOfDay = "afternoon"
	TimeEvening      TimeOfDay = "evening"
	TimeNight        TimeOfDay = "night"
	TimeMidnight     TimeOfDay = "midnight"
)

var timesOfDay = []TimeOfDay{TimeEarlyMorning, TimeMorning, TimeAfternoon, TimeEvening, TimeNight, TimeMidnight}

// ParseTimeOfDay matches the wire value case-insensitively.
func ParseTimeOfDay(value string) (TimeOfDay, bool) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range timesOfDay {
		if strings.EqualFold(trimmed, string(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

// BirthData is the submitted form payload before validation.
type BirthData struct {
	Method              string              `json:"method"`
	Location            string              `json:"location"`
	Date                string              `json:"date"`
	TimeOfDay           string              `json:"timeOfDay"`
	PhysicalDescription string              `json:"physicalDescription"`
	PhysicalAttributes  *PhysicalAttributes `json:"physicalAttributes,omitempty"`
}

// PhysicalAttributes is the structured variant of the free-text description.
type PhysicalAttributes struct {
	BodyType  string `json:"bodyType,omitempty"`
	FaceShape string `json:"faceShape,omitempty"`
	Eyes      string `json:"eyes,omitempty"`
	Hair      string `json:"hair,omitempty"`
	Skin      string `json:"skin,omitempty"`
}

func (a *PhysicalAttributes) isEmpty() bool {
	return a == nil || (a.BodyType == "" && a.FaceShape == "" && a.Eyes == "" && a.Hair == "" && a.Skin == "")
}

// Photo is an uploaded image. It lives only as long as the request.
type Photo struct {
	Filename string
	MimeType string
	Data     []byte
}

// BirthRequest is the validated, canonical input of the pipeline. Exactly one
// of PhysicalDescription, PhysicalAttributes or Photo is set, matching Method.
type BirthRequest struct {
	Method              Method
	Location            string
	Date                string
	TimeOfDay           TimeOfDay
	PhysicalDescription string
	PhysicalAttributes  *PhysicalAttributes
	Photo               *Photo
}

// GeoCoordinates is the geocoder output. Resolved is false when every lookup
// failed; the numeric fields are then meaningless.
type GeoCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Resolved  bool    `json:"resolved"`
}

// SunEvents are the UTC instants returned by the solar data service.
type SunEvents struct {
	Sunrise time.Time
	Sunset  time.Time
}

// SolarTimes are display strings such as "6:30 AM".
type SolarTimes struct {
	Sunrise string
	Sunset  string
	Source  string
}

// Role tags a prompt segment.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// ImageRef embeds an image as a data URI.
type ImageRef struct {
	MimeType string
	DataURI  string
}

// PromptMessage is one role tagged segment. A user segment with Image set is
// sent as mixed text and image content.
type PromptMessage struct {
	Role  Role
	Text  string
	Image *ImageRef
}

// Prompt is the ordered message sequence handed to the model.
type Prompt struct {
	Messages []PromptMessage
}

// Text joins the text of every segment, for token accounting.
func (p Prompt) Text() string {
	parts := make([]string, 0, len(p.Messages))
	for _, msg := range p.Messages {
		parts = append(parts, msg.Text)
	}
	return strings.Join(parts, "\n")
}

// CallOutcome is the terminal state of one completion call.
type CallOutcome string

const (
	OutcomeSucceeded CallOutcome = "succeeded"
	OutcomeTimedOut  CallOutcome = "timed_out"
	OutcomeFailed    CallOutcome = "failed"
)

// Result is the raw model output plus accounting.
type Result struct {
	Text  string
	Model string
	Usage metrics.TokenUsage
}

// Config wires runtime settings for the reading pipeline.
type Config struct {
	Model            string
	SystemPrompt     string
	Temperature      float32
	MaxTokens        int
	TopP             float32
	FrequencyPenalty float32
	PresencePenalty  float32
	Timeout          time.Duration
	ContextWindow    int
	MaxPhotoBytes    int64

	GeocodeModel    string
	GeocodeTimeout  time.Duration
	GeocodeCacheTTL time.Duration

	SolarTimeout time.Duration
	// DisplayZone renders sunrise and sunset. Nil derives a zone from longitude.
	DisplayZone *time.Location
}
