// Package types holds the JSON envelopes shared by every storefront endpoint.
package types

// SuccessEnvelope wraps every successful response body under a "data" key so
// list, detail and confirmation payloads all share one shape.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error body. Details carries field-level validation
// messages when the error code permits exposing them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
