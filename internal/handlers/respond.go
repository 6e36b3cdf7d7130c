package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
	"github.com/theduckgroup/Apps-sub000/internal/middleware"
)

const (
	defaultPage    = 1
	defaultPerPage = 20
	maxPerPage     = 100

	maxBodyBytes = 1 << 20
)

type errorResponse struct {
	Error     string              `json:"error"`
	Details   []domain.FieldError `json:"details,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

// responder holds what every handler needs to read requests and write
// JSON responses.
type responder struct {
	logger   *zap.Logger
	validate *validator.Validate
}

func newResponder(logger *zap.Logger, validate *validator.Validate) responder {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return responder{logger: logger, validate: validate}
}

// decode reads exactly one JSON value into dst, rejecting unknown fields,
// then runs struct validation.
func (h responder) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return domain.NewValidationError("body", describeDecodeError(err))
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.NewValidationError("body", "must contain a single JSON value")
	}
	return h.check(dst)
}

func (h responder) check(v any) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError("body", err.Error())
	}

	fields := make([]domain.FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = domain.FieldError{Field: fieldPath(fe.Namespace()), Message: tagMessage(fe)}
	}
	return domain.NewValidationErrors(fields)
}

// fieldPath drops the root struct name: "Catalog.Sections[0].ID" becomes
// "Sections[0].ID".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "datetime":
		return "must be a date formatted " + fe.Param()
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func describeDecodeError(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return fmt.Sprintf("%s has the wrong type", typeErr.Field)
	case errors.As(err, &maxErr):
		return "body too large"
	case errors.Is(err, io.EOF):
		return "body is empty"
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	default:
		return err.Error()
	}
}

func (h responder) respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
	}
}

// respondError maps domain errors onto HTTP statuses. Anything unknown is
// logged and reported as a bare 500.
func (h responder) respondError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	resp := errorResponse{Error: err.Error(), RequestID: requestID}

	var verr *domain.ValidationError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		resp.Error = "validation failed"
		resp.Details = verr.Errors
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrDuplicateID):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusRequestTimeout
		resp.Error = "request timeout"
	default:
		h.logger.Error("request failed",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		resp.Error = "internal server error"
	}

	h.respondJSON(w, r, status, resp)
}

// pageParams reads page/per_page into a limit/offset pair.
func pageParams(r *http.Request) (domain.PaginationParams, error) {
	page, err := positiveQueryInt(r, "page", defaultPage)
	if err != nil {
		return domain.PaginationParams{}, err
	}
	perPage, err := positiveQueryInt(r, "per_page", defaultPerPage)
	if err != nil {
		return domain.PaginationParams{}, err
	}
	perPage = min(perPage, maxPerPage)
	return domain.PaginationParams{Limit: perPage, Offset: (page - 1) * perPage}, nil
}

func positiveQueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.NewValidationError(name, "must be a positive integer")
	}
	return n, nil
}

type pageResponse[T any] struct {
	Data       []T            `json:"data"`
	Pagination pageDescriptor `json:"pagination"`
}

type pageDescriptor struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

func newPageResponse[T any](res *domain.PaginatedResult[T]) pageResponse[T] {
	perPage := max(res.Limit, 1)
	return pageResponse[T]{
		Data: res.Items,
		Pagination: pageDescriptor{
			Page:       res.Offset/perPage + 1,
			PerPage:    perPage,
			Total:      res.Total,
			TotalPages: (res.Total + perPage - 1) / perPage,
			HasMore:    res.HasMore,
		},
	}
}
