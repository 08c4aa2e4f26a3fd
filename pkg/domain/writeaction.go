package domain

import "strings"

// WriteAction is a configured outbound HTTP call with a templated body.
type WriteAction struct {
	ID                  string `json:"id" yaml:"id"`
	Name                string `json:"name" yaml:"name"`
	HTTPMethod          string `json:"http_method" yaml:"http_method"`
	Endpoint            string `json:"endpoint" yaml:"endpoint"`
	RequestBodyTemplate string `json:"request_body_template" yaml:"request_body_template"`
	Active              bool   `json:"is_active" yaml:"is_active"`

	// ResponseExpr optionally formats the success payload into customer text.
	// It is an expr-lang expression evaluated against the decoded response.
	ResponseExpr string `json:"response_expr,omitempty" yaml:"response_expr,omitempty"`
}

// Method returns the upper-cased HTTP method, POST when unset.
func (w WriteAction) Method() string {
	m := strings.ToUpper(strings.TrimSpace(w.HTTPMethod))
	if m == "" {
		return "POST"
	}
	return m
}

// ERPResponse is the normalized answer of an external action.
type ERPResponse struct {
	Success    bool           `json:"success"`
	StatusCode int            `json:"status_code,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Message    string         `json:"message,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// ActionResult carries the outcome of an external action back into evaluation.
type ActionResult struct {
	Response *ERPResponse
	Err      error
}
