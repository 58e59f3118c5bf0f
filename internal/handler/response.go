package handler

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/forgo/mediacms/api/internal/model"
)

// CollectionResponse wraps a list response with offset pagination
type CollectionResponse struct {
	Data       interface{}     `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

// PaginationInfo contains offset-based pagination info
type PaginationInfo struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// NewPaginationInfo builds pagination info for a page of returned items
func NewPaginationInfo(total, limit, offset, returned int) *PaginationInfo {
	return &PaginationInfo{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+returned < total,
	}
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteCollection writes a collection response with pagination
func WriteCollection(w http.ResponseWriter, status int, data interface{}, pagination *PaginationInfo) {
	WriteJSON(w, status, CollectionResponse{
		Data:       data,
		Pagination: pagination,
	})
}

// WriteError writes an error response using RFC 9457 Problem Details
func WriteError(w http.ResponseWriter, err *model.ProblemDetails) {
	err.WriteJSON(w)
}

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// parsePage reads limit and offset query parameters. Missing values fall back
// to the defaults; malformed or out of range values are reported as field
// errors.
func parsePage(r *http.Request) (limit, offset int, errs []model.FieldError) {
	limit = model.DefaultPageSize
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			errs = append(errs, model.FieldError{Field: "limit", Message: "must be an integer"})
		case n < 1 || n > model.MaxPageSize:
			errs = append(errs, model.FieldError{Field: "limit", Message: "must be between 1 and " + strconv.Itoa(model.MaxPageSize)})
		default:
			limit = n
		}
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			errs = append(errs, model.FieldError{Field: "offset", Message: "must be an integer"})
		case n < 0:
			errs = append(errs, model.FieldError{Field: "offset", Message: "must not be negative"})
		default:
			offset = n
		}
	}
	return limit, offset, errs
}
