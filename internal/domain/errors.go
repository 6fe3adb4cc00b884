package domain

import "fmt"

// ValidationError marks malformed client input. The pipeline is never
// invoked when validation fails.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// EncodingError marks an embedding oracle failure or a malformed query
// vector. Fatal to the request: no personalization is possible without a
// query vector.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("profile encoding failed: %v", e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// RetrievalError marks a store failure after retries were exhausted.
type RetrievalError struct {
	Err      error
	Attempts int
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("candidate retrieval failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// PipelineError wraps an upstream-of-scoring failure with the stage it
// occurred in. Scoring-stage failures never surface as pipeline errors; they
// resolve internally via the fallback ranking.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
