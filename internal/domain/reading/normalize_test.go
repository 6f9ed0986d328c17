package reading

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/astro-clock/pkg/errors"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

func TestParseBirthData(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCode string
		wantLoc  string
	}{
		{name: "object", raw: `{"method":"manual","location":"Mumbai, India","date":"1990-06-15"}`, wantLoc: "Mumbai, India"},
		{name: "string encoded object", raw: `"{\"location\":\"Lusaka\",\"date\":\"2000-01-01\"}"`, wantLoc: "Lusaka"},
		{name: "empty", raw: "  ", wantCode: CodeInvalidPayload},
		{name: "null", raw: "null", wantCode: CodeInvalidPayload},
		{name: "array", raw: `[1,2]`, wantCode: CodeInvalidPayload},
		{name: "broken json", raw: `{"location":`, wantCode: CodeInvalidPayload},
		{name: "wrong field type", raw: `{"location":42}`, wantCode: CodeInvalidPayload},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data, err := ParseBirthData([]byte(tt.raw))
			if tt.wantCode != "" {
				require.True(t, apperrors.IsCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantLoc, data.Location)
		})
	}
}

func TestNormalizeManual(t *testing.T) {
	req, err := Normalize(BirthData{
		Method:              "manual",
		Location:            "  Mumbai, India ",
		Date:                "1990-06-15",
		TimeOfDay:           "MORNING",
		PhysicalDescription: " tall, oval face, light brown eyes ",
	}, &Photo{Data: pngBytes}, 1<<20)
	require.NoError(t, err)
	require.Equal(t, MethodManual, req.Method)
	require.Equal(t, "Mumbai, India", req.Location)
	require.Equal(t, TimeMorning, req.TimeOfDay)
	require.Equal(t, "tall, oval face, light brown eyes", req.PhysicalDescription)
	require.Nil(t, req.PhysicalAttributes)
	require.Nil(t, req.Photo, "photo must be dropped for manual entries")
}

func TestNormalizeAttributes(t *testing.T) {
	req, err := Normalize(BirthData{
		Location:           "Lusaka",
		Date:               "1985-02-03",
		TimeOfDay:          "earlyMorning",
		PhysicalAttributes: &PhysicalAttributes{BodyType: " athletic ", Eyes: "dark   brown"},
	}, nil, 0)
	require.NoError(t, err)
	require.Equal(t, MethodManual, req.Method)
	require.Equal(t, TimeEarlyMorning, req.TimeOfDay)
	require.Equal(t, &PhysicalAttributes{BodyType: "athletic", Eyes: "dark brown"}, req.PhysicalAttributes)
}

func TestNormalizeUpload(t *testing.T) {
	req, err := Normalize(BirthData{
		Method:              "upload",
		Location:            "Lagos",
		Date:                "1999-12-31",
		PhysicalDescription: "ignored",
	}, &Photo{Filename: "me.png", MimeType: "image/png", Data: pngBytes}, 1<<20)
	require.NoError(t, err)
	require.Equal(t, MethodPhotoUpload, req.Method)
	require.Equal(t, TimeMorning, req.TimeOfDay)
	require.Empty(t, req.PhysicalDescription)
	require.NotNil(t, req.Photo)
	require.Equal(t, "image/png", req.Photo.MimeType)
}

func TestNormalizeUploadSniffsMissingMime(t *testing.T) {
	req, err := Normalize(BirthData{Location: "Lagos", Date: "1999-12-31"},
		&Photo{MimeType: "application/octet-stream", Data: pngBytes}, 0)
	require.NoError(t, err)
	require.Equal(t, MethodPhotoUpload, req.Method)
	require.Equal(t, "image/png", req.Photo.MimeType)
}

func TestNormalizeErrors(t *testing.T) {
	valid := func() BirthData {
		return BirthData{Method: "manual", Location: "Paris", Date: "2001-09-09", PhysicalDescription: "short and round face"}
	}
	tests := []struct {
		name     string
		mutate   func(*BirthData)
		photo    *Photo
		maxBytes int64
		wantCode string
		wantMsg  string
	}{
		{name: "missing location", mutate: func(d *BirthData) { d.Location = " " }, wantCode: CodeMissingRequiredField, wantMsg: "location is required"},
		{name: "missing date", mutate: func(d *BirthData) { d.Date = "" }, wantCode: CodeMissingRequiredField, wantMsg: "date is required"},
		{name: "bad date", mutate: func(d *BirthData) { d.Date = "15/06/1990" }, wantCode: CodeInvalidPayload},
		{name: "bad time of day", mutate: func(d *BirthData) { d.TimeOfDay = "teatime" }, wantCode: CodeInvalidPayload},
		{name: "bad method", mutate: func(d *BirthData) { d.Method = "telepathy" }, wantCode: CodeInvalidPayload},
		{name: "manual without traits", mutate: func(d *BirthData) { d.PhysicalDescription = "" }, wantCode: CodeMissingRequiredField},
		{
			name: "manual with both trait forms",
			mutate: func(d *BirthData) {
				d.PhysicalAttributes = &PhysicalAttributes{Hair: "black"}
			},
			wantCode: CodeInvalidPayload,
		},
		{name: "upload without photo", mutate: func(d *BirthData) { d.Method = "upload" }, wantCode: CodeMissingRequiredField},
		{
			name:     "upload not an image",
			mutate:   func(d *BirthData) { d.Method = "upload" },
			photo:    &Photo{MimeType: "image/png", Data: []byte("just some text pretending")},
			wantCode: CodeInvalidPayload,
		},
		{
			name:     "upload too large",
			mutate:   func(d *BirthData) { d.Method = "upload" },
			photo:    &Photo{Data: pngBytes},
			maxBytes: 8,
			wantCode: CodePayloadTooLarge,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data := valid()
			tt.mutate(&data)
			_, err := Normalize(data, tt.photo, tt.maxBytes)
			require.Error(t, err)
			require.True(t, apperrors.IsCode(err, tt.wantCode), "got %v", err)
			if tt.wantMsg != "" {
				require.Equal(t, tt.wantMsg, apperrors.PublicMessage(err, ""))
			}
		})
	}
}
