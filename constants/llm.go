package constants

import "time"

const (
	DefaultGeminiModel   = "gemini-2.5-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultTemperature   = float32(0.1)
	DefaultLLMTimeout    = 60 * time.Second

	// JSONMediaType is requested from providers as the response MIME type.
	JSONMediaType = "application/json"

	// Reserved keys the extraction instruction asks the model to include.
	FieldDocumentType    = "documentType"
	FieldConfidenceScore = "confidenceScore"
)

const (
	DefaultMinInterval = time.Second
	DefaultMaxInFlight = 1
)
