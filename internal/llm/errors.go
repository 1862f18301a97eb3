package llm

import "errors"

var (
	// ErrEmptyCompletion is returned when the model produced no text.
	ErrEmptyCompletion = errors.New("llm: model returned empty completion")

	// ErrSchemaDecode is returned when a structured completion could not be
	// decoded into the requested type.
	ErrSchemaDecode = errors.New("llm: completion does not match requested schema")

	// ErrMissingAPIKey is returned by NewGeminiClient when no credential is
	// configured.
	ErrMissingAPIKey = errors.New("llm: GEMINI_API_KEY is not set")
)
