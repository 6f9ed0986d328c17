package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/astro-clock/internal/domain/access"
	"github.com/yanqian/astro-clock/internal/domain/reading"
	"github.com/yanqian/astro-clock/internal/domain/sitemeta"
	"github.com/yanqian/astro-clock/internal/infra/config"
	apperrors "github.com/yanqian/astro-clock/pkg/errors"
)

const (
	birthDataField = "birthData"
	photoField     = "photo"
	// form fields and multipart framing on top of the photo itself
	uploadOverhead = 1 << 20
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	readingSvc     reading.Service
	passes         access.Service
	meta           sitemeta.Metadata
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewHandler constructs the root HTTP handler.
// passes may be nil when reading passes are not in use.
func NewHandler(cfg *config.Config, readingSvc reading.Service, passes access.Service, logger *slog.Logger) *Handler {
	return &Handler{
		readingSvc:     readingSvc,
		passes:         passes,
		meta:           sitemeta.Build(cfg.Site.BaseURL),
		maxUploadBytes: cfg.HTTP.MaxUploadBytes,
		logger:         logger.With("component", "http.handler"),
	}
}

type generateReadingResponse struct {
	Prediction string `json:"prediction"`
}

// GenerateReading accepts {"birthData": ...} as JSON or a multipart form with
// a birthData field and an optional photo file.
func (h *Handler) GenerateReading(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+uploadOverhead)
	}

	var (
		raw     []byte
		photo   *reading.Photo
		httpErr *HTTPError
	)
	if isMultipart(c.ContentType()) {
		raw, photo, httpErr = h.readMultipart(c)
	} else {
		raw, httpErr = readJSONBirthData(c)
	}
	if httpErr != nil {
		abortWithError(c, httpErr)
		return
	}

	data, err := reading.ParseBirthData(raw)
	if err != nil {
		abortWithError(c, readingHTTPError(err))
		return
	}

	if pass, ok := getPass(c); ok {
		h.logger.Info("reading pass accepted", "wallet", pass.Wallet, "charge_id", pass.ChargeID, "request_id", requestIDFrom(c))
	}

	result, err := h.readingSvc.Generate(c.Request.Context(), data, photo)
	if err != nil {
		abortWithError(c, readingHTTPError(err))
		return
	}
	h.logger.Info("reading generated", append([]any{"model", result.Model, "request_id", requestIDFrom(c)}, result.Usage.LogAttrs()...)...)

	c.JSON(http.StatusOK, generateReadingResponse{Prediction: result.Text})
}

// Meta returns the sharing metadata of the site.
func (h *Handler) Meta(c *gin.Context) {
	c.JSON(http.StatusOK, h.meta)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func readJSONBirthData(c *gin.Context) ([]byte, *HTTPError) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, bodyReadError(err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, NewHTTPError(http.StatusBadRequest, reading.CodeInvalidPayload, "Birth data is required", nil)
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, NewHTTPError(http.StatusBadRequest, reading.CodeInvalidPayload, "Invalid birth data format", err)
	}
	raw, ok := envelope[birthDataField]
	if !ok {
		return nil, NewHTTPError(http.StatusBadRequest, reading.CodeInvalidPayload, "Birth data is required", nil)
	}
	return raw, nil
}

func (h *Handler) readMultipart(c *gin.Context) ([]byte, *reading.Photo, *HTTPError) {
	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return nil, nil, bodyReadError(err)
	}
	value := c.Request.PostFormValue(birthDataField)
	if strings.TrimSpace(value) == "" {
		return nil, nil, NewHTTPError(http.StatusBadRequest, reading.CodeInvalidPayload, "Birth data is required", nil)
	}
	raw := []byte(value)

	file, header, err := c.Request.FormFile(photoField)
	if errors.Is(err, http.ErrMissingFile) {
		return raw, nil, nil
	}
	if err != nil {
		return nil, nil, NewHTTPError(http.StatusBadRequest, reading.CodeInvalidPayload, "Invalid photo upload", err)
	}
	defer file.Close()

	photo, httpErr := h.readPhoto(file, header)
	if httpErr != nil {
		return nil, nil, httpErr
	}
	return raw, photo, nil
}

func (h *Handler) readPhoto(file multipart.File, header *multipart.FileHeader) (*reading.Photo, *HTTPError) {
	limit := h.maxUploadBytes
	if limit <= 0 {
		limit = header.Size
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, NewHTTPError(http.StatusBadRequest, reading.CodeInvalidPayload, "Invalid photo upload", err)
	}
	if int64(len(data)) > limit {
		return nil, NewHTTPError(http.StatusRequestEntityTooLarge, reading.CodePayloadTooLarge, "Photo is too large", nil)
	}
	return &reading.Photo{
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

func bodyReadError(err error) *HTTPError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
		return NewHTTPError(http.StatusRequestEntityTooLarge, reading.CodePayloadTooLarge, "Request body is too large", err)
	}
	return NewHTTPError(http.StatusBadRequest, reading.CodeInvalidPayload, "Invalid birth data format", err)
}

func isMultipart(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "multipart/form-data"
}

const readingTimeoutMessage = "The reading took too long to generate. Please try again."

// readingHTTPError maps reading failures onto statuses. Server side failures
// get a fixed message; their cause is only logged.
func readingHTTPError(err error) *HTTPError {
	if apperrors.IsCode(err, reading.CodeTimeout) {
		return NewHTTPError(http.StatusRequestTimeout, reading.CodeTimeout, readingTimeoutMessage, err)
	}
	return fromAppError(err, reading.CodeGenerationFailed, "Failed to generate reading")
}
