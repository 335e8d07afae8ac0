package errors

import (
	"fmt"
)

// ConfigParse reports a webhook mapping list that could not be parsed.
// The loader recovers from it; it is never sent to a caller.
func ConfigParse(text string, cause error) *AppError {
	return New(ErrTypeConfigParse, fmt.Sprintf("failed to parse webhook mappings: %s", text), cause)
}

// NoMatchingWebhook reports that no mapping with a usable URL exists for path.
func NoMatchingWebhook(path string) *AppError {
	return New(ErrTypeNoMatchingWebhook, fmt.Sprintf("no valid webhook URL found for path: %s", path), nil)
}

// DispatchFailure reports a transport-level failure posting to url.
func DispatchFailure(url string, cause error) *AppError {
	return New(ErrTypeDispatch, fmt.Sprintf("failed to send message to %s", url), cause).WithStack()
}

// InvalidPayload reports an inbound body that is not a single JSON value.
func InvalidPayload(cause error) *AppError {
	return New(ErrTypeInvalidPayload, "request body is not valid JSON", cause)
}
