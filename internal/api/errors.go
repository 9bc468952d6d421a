package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/fciautomation/payroll-admin-client/internal/customhttp"
	"github.com/fciautomation/payroll-admin-client/internal/model"
)

// StatusError is an application-level failure: the server answered with a
// non-2xx status. Message carries the server's {message} body when present.
type StatusError struct {
	APIName string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("payroll service (%s) returned status %d: %s", e.APIName, e.Code, e.Message)
	}
	return fmt.Sprintf("payroll service (%s) returned status %d", e.APIName, e.Code)
}

func errorFromResponse(apiName string, resp *http.Response) error {
	statusErr := &StatusError{APIName: apiName, Code: resp.StatusCode}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return statusErr
	}
	var errBody model.ErrorResponse
	if err := json.Unmarshal(body, &errBody); err == nil {
		statusErr.Message = errBody.Message
	}
	return statusErr
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == code
}

func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

func IsConflict(err error) bool {
	return IsStatus(err, http.StatusConflict)
}

// IsUnreachable reports whether the request never produced a response.
func IsUnreachable(err error) bool {
	var unreachable *customhttp.UnreachableError
	return errors.As(err, &unreachable)
}

// ErrorMessage extracts a user-displayable message from any client error.
func ErrorMessage(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	if IsUnreachable(err) {
		return "Connection lost. Please check if the server is running."
	}
	return err.Error()
}
