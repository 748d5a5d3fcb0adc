package handlers

import (
	"net/http"

	"github.com/turtacn/ListSense/internal/application/extraction"
	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

// ExtractionHandler serves the extraction and similarity endpoints.
type ExtractionHandler struct {
	svc    extraction.Service
	logger logging.Logger
}

// NewExtractionHandler creates a new ExtractionHandler.
func NewExtractionHandler(svc extraction.Service, logger logging.Logger) *ExtractionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ExtractionHandler{svc: svc, logger: logger.Named("http.extraction")}
}

// ResultsResponse is the payload of the token-level endpoints.
type ResultsResponse struct {
	Results []entity.ExtractionResult `json:"results"`
}

// PairRequest is the body of the similarity endpoints. An absent
// case_sensitive means true.
type PairRequest struct {
	A             string `json:"a"`
	B             string `json:"b"`
	CaseSensitive *bool  `json:"case_sensitive,omitempty"`
}

// ExtractSingle handles POST /api/v1/extract.
func (h *ExtractionHandler) ExtractSingle(w http.ResponseWriter, r *http.Request) {
	var req extraction.ExtractSingleInput
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	results, err := h.svc.ExtractSingle(r.Context(), &req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, ResultsResponse{Results: nonNil(results)})
}

// ExtractMultiple handles POST /api/v1/extract/multiple.
func (h *ExtractionHandler) ExtractMultiple(w http.ResponseWriter, r *http.Request) {
	var req extraction.ExtractMultipleInput
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	results, err := h.svc.ExtractMultiple(r.Context(), &req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, ResultsResponse{Results: nonNil(results)})
}

// ExtractText handles POST /api/v1/extract/text.
func (h *ExtractionHandler) ExtractText(w http.ResponseWriter, r *http.Request) {
	var req extraction.ExtractTextInput
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.ExtractText(r.Context(), &req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if res.Entities == nil {
		res.Entities = []entity.Entity{}
	}
	writeData(w, r, http.StatusOK, res)
}

// ExtractBatch handles POST /api/v1/extract/batch.
func (h *ExtractionHandler) ExtractBatch(w http.ResponseWriter, r *http.Request) {
	var req extraction.ExtractBatchInput
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.ExtractBatch(r.Context(), &req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, res)
}

// Levenshtein handles POST /api/v1/similarity/levenshtein.
func (h *ExtractionHandler) Levenshtein(w http.ResponseWriter, r *http.Request) {
	h.similarity(w, r, extraction.MetricLevenshtein)
}

// JaroWinkler handles POST /api/v1/similarity/jaro-winkler.
func (h *ExtractionHandler) JaroWinkler(w http.ResponseWriter, r *http.Request) {
	h.similarity(w, r, extraction.MetricJaroWinkler)
}

func (h *ExtractionHandler) similarity(w http.ResponseWriter, r *http.Request, metric string) {
	var req PairRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.Similarity(r.Context(), &extraction.SimilarityInput{
		Metric:        metric,
		A:             req.A,
		B:             req.B,
		CaseSensitive: req.CaseSensitive,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, res)
}

func nonNil(rs []entity.ExtractionResult) []entity.ExtractionResult {
	if rs == nil {
		return []entity.ExtractionResult{}
	}
	return rs
}

//Personal.AI order the ending
