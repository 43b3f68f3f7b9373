package errors

import stdErrors "errors"

// Dump summarizes an error chain for structured logging.
type Dump struct {
	Code       Code
	TopMessage string
	Chain      []string
}

// DumpError walks the wrapped chain collecting every message, so logs show the
// full causal path even when only the typed head is surfaced to clients.
func DumpError(err error) Dump {
	dump := Dump{Code: CodeInternal}
	if err == nil {
		return dump
	}
	dump.TopMessage = err.Error()
	if typed := As(err); typed != nil {
		dump.Code = typed.Code()
	}
	for current := err; current != nil; current = stdErrors.Unwrap(current) {
		dump.Chain = append(dump.Chain, current.Error())
	}
	return dump
}
