package reading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "github.com/yanqian/astro-clock/pkg/errors"
	"github.com/yanqian/astro-clock/pkg/util"
)

// ParseBirthData decodes the birthData field. The field may be a JSON object
// or, as multipart forms and some clients send it, a JSON encoded string
// holding that object.
func ParseBirthData(raw []byte) (BirthData, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return BirthData{}, apperrors.Wrap(CodeInvalidPayload, "birth data is required", nil)
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return BirthData{}, apperrors.Wrap(CodeInvalidPayload, "invalid birth data format", err)
		}
		trimmed = bytes.TrimSpace([]byte(inner))
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return BirthData{}, apperrors.Wrap(CodeInvalidPayload, "invalid birth data format", nil)
	}
	var data BirthData
	if err := json.Unmarshal(trimmed, &data); err != nil {
		return BirthData{}, apperrors.Wrap(CodeInvalidPayload, "invalid birth data format", err)
	}
	return data, nil
}

// Normalize validates submitted birth data and an optional photo into a
// BirthRequest. A photo sent with a manual submission is dropped, as are
// text traits sent with an upload.
func Normalize(data BirthData, photo *Photo, maxPhotoBytes int64) (BirthRequest, error) {
	location := strings.TrimSpace(data.Location)
	if location == "" {
		return BirthRequest{}, apperrors.Wrap(CodeMissingRequiredField, "location is required", nil)
	}

	date := strings.TrimSpace(data.Date)
	if date == "" {
		return BirthRequest{}, apperrors.Wrap(CodeMissingRequiredField, "date is required", nil)
	}
	if _, err := util.ParseDate(date); err != nil {
		return BirthRequest{}, apperrors.Wrap(CodeInvalidPayload, "date must be formatted as YYYY-MM-DD", err)
	}

	timeOfDay := TimeMorning
	if strings.TrimSpace(data.TimeOfDay) != "" {
		parsed, ok := ParseTimeOfDay(data.TimeOfDay)
		if !ok {
			return BirthRequest{}, apperrors.Wrap(CodeInvalidPayload, fmt.Sprintf("unsupported timeOfDay %q", data.TimeOfDay), nil)
		}
		timeOfDay = parsed
	}

	method, err := resolveMethod(data.Method, photo)
	if err != nil {
		return BirthRequest{}, err
	}

	req := BirthRequest{
		Method:    method,
		Location:  location,
		Date:      date,
		TimeOfDay: timeOfDay,
	}

	switch method {
	case MethodManual:
		description := strings.TrimSpace(data.PhysicalDescription)
		attrs := normalizeAttributes(data.PhysicalAttributes)
		switch {
		case description != "" && attrs != nil:
			return BirthRequest{}, apperrors.Wrap(CodeInvalidPayload, "provide either physicalDescription or physicalAttributes, not both", nil)
		case description == "" && attrs == nil:
			return BirthRequest{}, apperrors.Wrap(CodeMissingRequiredField, "physicalDescription is required for manual entry", nil)
		}
		req.PhysicalDescription = description
		req.PhysicalAttributes = attrs
	case MethodPhotoUpload:
		checked, err := checkPhoto(photo, maxPhotoBytes)
		if err != nil {
			return BirthRequest{}, err
		}
		req.Photo = checked
	}
	return req, nil
}

func resolveMethod(raw string, photo *Photo) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		if photo != nil {
			return MethodPhotoUpload, nil
		}
		return MethodManual, nil
	case "manual":
		return MethodManual, nil
	case "upload", "photo", "photoupload":
		return MethodPhotoUpload, nil
	default:
		return "", apperrors.Wrap(CodeInvalidPayload, fmt.Sprintf("unsupported method %q", raw), nil)
	}
}

func normalizeAttributes(in *PhysicalAttributes) *PhysicalAttributes {
	if in == nil {
		return nil
	}
	out := &PhysicalAttributes{
		BodyType:  collapseSpaces(in.BodyType),
		FaceShape: collapseSpaces(in.FaceShape),
		Eyes:      collapseSpaces(in.Eyes),
		Hair:      collapseSpaces(in.Hair),
		Skin:      collapseSpaces(in.Skin),
	}
	if out.isEmpty() {
		return nil
	}
	return out
}

func checkPhoto(photo *Photo, maxBytes int64) (*Photo, error) {
	if photo == nil || len(photo.Data) == 0 {
		return nil, apperrors.Wrap(CodeMissingRequiredField, "photo is required for photo upload", nil)
	}
	if maxBytes > 0 && int64(len(photo.Data)) > maxBytes {
		return nil, apperrors.Wrap(CodePayloadTooLarge, fmt.Sprintf("photo exceeds %d bytes", maxBytes), nil)
	}
	detected := mimetype.Detect(photo.Data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, apperrors.Wrap(CodeInvalidPayload, "photo must be an image", nil)
	}
	mimeType := detected.String()
	if declared, _, err := mime.ParseMediaType(photo.MimeType); err == nil && strings.HasPrefix(declared, "image/") {
		mimeType = declared
	}
	return &Photo{Filename: photo.Filename, MimeType: mimeType, Data: photo.Data}, nil
}

func collapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
