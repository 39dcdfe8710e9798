package cerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"github.com/taskdeck/taskdeck/pkg/clog"
)

// FieldError reports a single violated field in a request body.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries a Code for transport mapping, a message safe to return to the
// caller, and an optional underlying error that only ever reaches the log.
type Error struct {
	Code   Code
	Msg    string
	Err    error
	Stack  string
	Fields []FieldError
}

func NewError(code Code, msg string, underlying error) *Error {
	e := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if code.HTTPCode() >= http.StatusInternalServerError {
		buf := make([]byte, 2048)
		n := runtime.Stack(buf, false)
		e.Stack = string(buf[:n])
	}
	return e
}

// NewFieldErrors builds an InvalidArgument error whose response body is the
// aggregated field-error list rather than a single message.
func NewFieldErrors(fields []FieldError) *Error {
	e := NewError(InvalidArgument, "validation failed", nil)
	e.Fields = fields
	return e
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is a cerr.Error with the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

type errorBody struct {
	Error string `json:"error"`
}

type fieldErrorBody struct {
	Errors []FieldError `json:"errors"`
}

// ExtractToHTTPResponse serializes whatever the handler deposited in the
// receiver: the response value on success, otherwise the error in its wire
// shape ({"errors": [...]} for field errors, {"error": "..."} for the rest).
func ExtractToHTTPResponse(ctx context.Context, rw http.ResponseWriter, rr *responseReceiver) {
	if rr.err == nil {
		writeJSON(ctx, rw, http.StatusOK, rr.response)
		return
	}

	err := rr.err
	if errors.Is(err, context.Canceled) {
		err = NewError(Canceled, "connection closed", err)
	}

	clog.AddError(ctx, err)
	var e *Error
	if !errors.As(err, &e) {
		e = NewError(Unknown, "Internal Server Error", err)
	}
	if e.Stack != "" {
		clog.AddStack(ctx, e.Stack)
	}

	if len(e.Fields) > 0 {
		writeJSON(ctx, rw, e.Code.HTTPCode(), fieldErrorBody{Errors: e.Fields})
		return
	}
	writeJSON(ctx, rw, e.Code.HTTPCode(), errorBody{Error: e.Msg})
}

func writeJSON(ctx context.Context, rw http.ResponseWriter, status int, body any) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(body); err != nil {
		clog.AddError(ctx, NewError(Internal, "Internal Server Error", err))
		status = http.StatusInternalServerError
		buf = bytes.NewBufferString(`{"error":"Internal Server Error"}` + "\n")
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	if _, err := rw.Write(buf.Bytes()); err != nil {
		clog.AddError(ctx, fmt.Errorf("write response: %w", err))
	}
}
