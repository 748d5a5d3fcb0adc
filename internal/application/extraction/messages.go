package extraction

import (
	"time"

	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

// Event types published by the worker.
const (
	EventExtractionCompleted = "extraction.completed"
	EventBatchCompleted      = "batch.completed"
)

// ExtractionRequest is an asynchronous extraction request. Exactly one of
// Text and Tokens is set. Text selects catalog entities by EntityNames;
// Tokens run against the inline Entities.
type ExtractionRequest struct {
	ID          string                    `json:"id"`
	Text        string                    `json:"text,omitempty"`
	Tokens      []string                  `json:"tokens,omitempty"`
	Entities    []entity.EntityDefinition `json:"entities,omitempty"`
	EntityNames []string                  `json:"entity_names,omitempty"`
}

// Validate checks the request shape.
func (r *ExtractionRequest) Validate() error {
	if r.ID == "" {
		return errors.New(errors.ErrCodeValidation, "request id is required")
	}
	hasText, hasTokens := r.Text != "", len(r.Tokens) > 0
	switch {
	case hasText && hasTokens:
		return errors.New(errors.ErrCodeValidation, "text and tokens are mutually exclusive")
	case !hasText && !hasTokens:
		return errors.New(errors.ErrCodeEmptyUtterance, "text or tokens is required")
	case hasTokens && len(r.Entities) == 0:
		return errors.New(errors.ErrCodeValidation, "token requests need inline entities")
	}
	return nil
}

// ResponseError is the wire form of a failed extraction.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newResponseError(err error) *ResponseError {
	return &ResponseError{Code: string(errors.GetCode(err)), Message: err.Error()}
}

// ExtractionResponse answers one ExtractionRequest. Token requests fill
// Results; text requests fill Entities.
type ExtractionResponse struct {
	ID          string                    `json:"id"`
	Results     []entity.ExtractionResult `json:"results,omitempty"`
	Entities    []entity.Entity           `json:"entities,omitempty"`
	Error       *ResponseError            `json:"error,omitempty"`
	ProcessedAt time.Time                 `json:"processed_at"`
}

// BatchJob asks the worker to extract every utterance of a JSONL object and
// write the results to another object.
type BatchJob struct {
	ID           string   `json:"id"`
	Bucket       string   `json:"bucket,omitempty"`
	InputObject  string   `json:"input_object"`
	OutputObject string   `json:"output_object,omitempty"`
	EntityNames  []string `json:"entity_names,omitempty"`
}

// Validate checks the job shape.
func (j *BatchJob) Validate() error {
	if j.ID == "" {
		return errors.New(errors.ErrCodeValidation, "job id is required")
	}
	if j.InputObject == "" {
		return errors.New(errors.ErrCodeValidation, "input_object is required")
	}
	return nil
}

// BatchJobResult reports a finished batch job.
type BatchJobResult struct {
	JobID        string    `json:"job_id"`
	OutputObject string    `json:"output_object"`
	Total        int       `json:"total"`
	Failed       int       `json:"failed"`
	Error        string    `json:"error,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}

// UtteranceRecord is one line of a batch input object.
type UtteranceRecord struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// ResultRecord is one line of a batch output object.
type ResultRecord struct {
	ID       string          `json:"id,omitempty"`
	Index    int             `json:"index"`
	Entities []entity.Entity `json:"entities"`
	Error    string          `json:"error,omitempty"`
}

//Personal.AI order the ending
