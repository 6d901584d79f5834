package requester

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Method is the HTTP method of a Request
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
)

// hasBody reports whether the method carries a JSON body rather than query parameters
func (m Method) hasBody() bool {
	return m == MethodPost || m == MethodPut
}

// MaxAuthRetries bounds the refresh-and-retry cycles of a single call
const MaxAuthRetries = 1

// QueryParam is a single query parameter; order is preserved on the wire
type QueryParam struct {
	Key   string
	Value string
}

// Request describes one logical API call
type Request struct {
	Method Method
	Path   string
	Body   any
	Query  []QueryParam

	// RetryOnUnauthorized allows one token refresh and reissue on a 401.
	// It is cleared on the reissued request.
	RetryOnUnauthorized bool
}

// Response represents an HTTP response with a best-effort parsed body
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header

	// Data is the decoded JSON body, or the body as a string when it is not JSON
	Data any
}

// Decode unmarshals the raw body into out
func (r *Response) Decode(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// TokenPair is the token payload of /login/ and /token/refresh/
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Registration is the payload of /register/
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Profile is the identity returned by /register/
type Profile struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Todo is the remote domain resource
type Todo struct {
	ID          *int64 `json:"id,omitempty"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}
