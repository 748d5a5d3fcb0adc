package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/common"
)

// writeJSON writes data with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeData wraps data in the success envelope.
func writeData[T any](w http.ResponseWriter, r *http.Request, statusCode int, data T) {
	resp := common.NewSuccessResponse(data)
	resp.RequestID = chimw.GetReqID(r.Context())
	writeJSON(w, statusCode, resp)
}

// writeAppError maps err onto its HTTP status and the error envelope.
// Internal failures are logged and masked.
func writeAppError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	var ae *errors.AppError
	if !errors.As(err, &ae) {
		ae = errors.Wrap(err, errors.ErrCodeInternal, "internal server error")
	}
	status := ae.HTTPStatus()

	resp := common.NewErrorResponse(string(ae.Code), ae.Message)
	resp.RequestID = chimw.GetReqID(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			logging.String(logging.FieldRequestID, resp.RequestID),
			logging.String(logging.FieldErrorCode, string(ae.Code)),
			logging.Err(err))
		resp.Error.Message = "internal server error"
	} else if ae.Detail != "" {
		resp.Error.Details = map[string]interface{}{"detail": ae.Detail}
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads the request body into v. Unknown fields are rejected.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return errors.New(errors.ErrCodeUtteranceTooLong, "request body too large").
				WithDetailf("limit=%d", tooLarge.Limit)
		case stderrors.Is(err, io.EOF):
			return errors.New(errors.ErrCodeBadRequest, "request body is empty")
		default:
			return errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body").WithDetail(err.Error())
		}
	}
	return nil
}

//Personal.AI order the ending
