package types

type SuccessEnvelope struct {
	Data any `json:"data"`
	// Notices carries storefront notices raised while serving the request,
	// such as quantity corrections.
	Notices []string `json:"notices,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
