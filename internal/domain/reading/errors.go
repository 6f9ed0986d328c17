package reading

// Error codes carried by apperrors.AppError out of this package.
const (
	CodeInvalidPayload       = "invalid_payload"
	CodeMissingRequiredField = "missing_required_field"
	CodePayloadTooLarge      = "payload_too_large"
	CodeTimeout              = "timeout"
	CodeGenerationFailed     = "generation_failed"

	// absorbed inside the pipeline, only ever logged
	CodeGeocodeFailed   = "geocode_failed"
	CodeSolarTimeFailed = "solar_time_failed"
)

// FallbackPrediction replaces an empty model reply.
const FallbackPrediction = "Unable to generate reading. Please try again."
