package internal

import (
	"context"
	"errors"
	"fmt"
)

type ErrorKind int

const (
	Unknown ErrorKind = iota
	RequestTimeout
	TooManyRequests
	NoInternet
	ServerError
	Serialization
)

var kindMessages = map[ErrorKind]string{
	RequestTimeout:  "The request timed out.",
	TooManyRequests: "Oops, it seems like your quota is exceeded.",
	NoInternet:      "Couldn't connect to the server, please check your internet connection.",
	ServerError:     "Something went wrong. Please try again later.",
	Serialization:   "Couldn't parse data.",
	Unknown:         "Unknown error occurred.",
}

func (k ErrorKind) String() string {
	switch k {
	case RequestTimeout:
		return "request_timeout"
	case TooManyRequests:
		return "too_many_requests"
	case NoInternet:
		return "no_internet"
	case ServerError:
		return "server_error"
	case Serialization:
		return "serialization"
	default:
		return "unknown"
	}
}

// DataError is the only error type the data source hands to the presentation
// layer. Error() is the user-facing text.
type DataError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func NewDataError(kind ErrorKind, err error) *DataError {
	return &DataError{Kind: kind, Err: err}
}

func (e *DataError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return kindMessages[e.Kind]
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// Detail includes the cause, for logs.
func (e *DataError) Detail() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Error())
	}
	return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Error(), e.Err)
}

// AsDataError returns err as a *DataError, wrapping foreign errors as Unknown
// with their own text as the message.
func AsDataError(err error) *DataError {
	if err == nil {
		return nil
	}
	var de *DataError
	if errors.As(err, &de) {
		return de
	}
	return &DataError{Kind: Unknown, Message: err.Error(), Err: err}
}

// IsCanceled reports whether err came from a cancelled request.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
