package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrInvocation indicates the provider could not be reached or returned uninterpretable output.
var ErrInvocation = errors.New("ai invocation failed")
