package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Page describes the slice of a paged listing that was returned.
type Page struct {
	Number  int  `json:"page"`
	Size    int  `json:"size"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}
