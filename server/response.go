package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	ErrInternalCode           = "INTERNAL_ERROR"
	ErrBadRequestCode         = "BAD_REQUEST"
	ErrServiceUnavailableCode = "SERVICE_UNAVAILABLE"
)

// Response is the standard envelope for all endpoints.
type Response struct {
	Status  int        `json:"status"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// RequestError represents errors that can occur during request handling.
type RequestError struct {
	StatusCode int
	Code       string
	Reason     string
	Err        error
}

func (e *RequestError) Error() string {
	return e.Reason
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError creates a new RequestError.
func NewRequestError(statusCode int, code string, reason string, err error) *RequestError {
	return &RequestError{StatusCode: statusCode, Code: code, Reason: reason, Err: err}
}

func (e *RequestError) errorInfo() *ErrorInfo {
	info := &ErrorInfo{Code: e.Code, Message: e.Reason}
	if e.Err != nil {
		info.Details = e.Err.Error()
	}
	return info
}

// RespondOK writes a success envelope.
func RespondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// RespondWithError writes a failure envelope.
func RespondWithError(c *gin.Context, reqErr *RequestError) {
	c.JSON(reqErr.StatusCode, Response{
		Status: reqErr.StatusCode,
		Error:  reqErr.errorInfo(),
	})
}
