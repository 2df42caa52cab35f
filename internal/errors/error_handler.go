// Package errors maps service errors onto the JSON error envelope used by
// every /api route.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/repository"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/service"
	"go.uber.org/zap"
)

type ErrorCode string

const (
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrorCodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrorCodeForbidden      ErrorCode = "FORBIDDEN"
	ErrorCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrorCodeConflict       ErrorCode = "CONFLICT"
	ErrorCodeRateLimited    ErrorCode = "RATE_LIMITED"
	ErrorCodeInternalError  ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse is the envelope written for every failed API call.
type ErrorResponse struct {
	Status    string    `json:"status"`
	ErrorCode ErrorCode `json:"error_code"`
	Message   string    `json:"message"`
	// Field and Reason are set for validation failures.
	Field     string `json:"field,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// RequestIDFunc extracts the request id from a context.
type RequestIDFunc func(ctx context.Context) string

type Handler struct {
	logger    *zap.Logger
	requestID RequestIDFunc
}

func NewHandler(logger *zap.Logger, requestID RequestIDFunc) *Handler {
	if requestID == nil {
		requestID = func(context.Context) string { return "" }
	}
	return &Handler{logger: logger, requestID: requestID}
}

// Classify maps err to an HTTP status and error code.
func Classify(err error) (int, ErrorCode) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case stderrors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, ErrorCodeInvalidRequest
	case stderrors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrorCodeUnauthorized
	case stderrors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, ErrorCodeForbidden
	case stderrors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, ErrorCodeNotFound
	case stderrors.Is(err, service.ErrConflict),
		stderrors.Is(err, service.ErrInvalidTransition),
		stderrors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict, ErrorCodeConflict
	case stderrors.Is(err, service.ErrOnboardingRequired):
		return http.StatusConflict, ErrorCodeConflict
	default:
		return http.StatusInternalServerError, ErrorCodeInternalError
	}
}

// HandleError writes the envelope for err. Internal errors are logged with
// their cause and reported to the client without it.
func (h *Handler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := Classify(err)
	resp := ErrorResponse{
		Status:    "error",
		ErrorCode: code,
		Message:   err.Error(),
		RequestID: h.requestID(r.Context()),
	}
	var ve *service.ValidationError
	if stderrors.As(err, &ve) {
		resp.Field = ve.Field
		resp.Reason = ve.Code
		resp.Message = ve.Error()
	}
	if code == ErrorCodeInternalError {
		h.logger.Error("request failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("request_id", resp.RequestID),
		)
		resp.Message = "internal server error"
	}
	h.write(w, status, resp)
}

func (h *Handler) WriteErrorResponse(w http.ResponseWriter, r *http.Request, status int, code ErrorCode, message string) {
	h.write(w, status, ErrorResponse{
		Status:    "error",
		ErrorCode: code,
		Message:   message,
		RequestID: h.requestID(r.Context()),
	})
}

func (h *Handler) WriteValidationError(w http.ResponseWriter, r *http.Request, message string) {
	h.WriteErrorResponse(w, r, http.StatusBadRequest, ErrorCodeInvalidRequest, message)
}

func (h *Handler) WriteUnauthorized(w http.ResponseWriter, r *http.Request) {
	h.WriteErrorResponse(w, r, http.StatusUnauthorized, ErrorCodeUnauthorized, "login required")
}

func (h *Handler) WriteForbidden(w http.ResponseWriter, r *http.Request) {
	h.WriteErrorResponse(w, r, http.StatusForbidden, ErrorCodeForbidden, "access denied")
}

func (h *Handler) WriteRateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "1")
	h.WriteErrorResponse(w, r, http.StatusTooManyRequests, ErrorCodeRateLimited, "rate limit exceeded")
}

func (h *Handler) write(w http.ResponseWriter, status int, resp ErrorResponse) {
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		h.logger.Debug("HTTP error response",
			zap.Int("status_code", status),
			zap.String("error_code", string(resp.ErrorCode)),
			zap.String("message", resp.Message),
			zap.String("request_id", resp.RequestID),
		)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
