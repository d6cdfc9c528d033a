package gateway

import (
	"encoding/json"
	"net/http"
)

// Headers returns the headers carried by every response
func Headers() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type",
		"Access-Control-Allow-Methods": "POST, OPTIONS",
		"Content-Type":                 "application/json",
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func errorResponse(status int, message string) Response {
	// marshalling a single string field cannot fail
	body, _ := json.Marshal(errorBody{Error: message})
	return Response{Status: status, Headers: Headers(), Body: body}
}

// ErrorResponse builds an error response outside the dispatch path, e.g. for
// a body rejected by the transport before it reached Handle.
func ErrorResponse(status int, message string) Response {
	return errorResponse(status, message)
}

// InternalError is the generic 500 response
func InternalError() Response {
	return errorResponse(http.StatusInternalServerError, msgInternal)
}
