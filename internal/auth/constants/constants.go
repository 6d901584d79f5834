package constants

const (
	// TokenType for Bearer authentication
	TokenType = "Bearer"

	// AuthHeaderName is the name of the Authorization header
	AuthHeaderName = "Authorization"

	// AuthHeaderPrefix is the prefix for the Authorization header value
	AuthHeaderPrefix = "Bearer "

	// RequestIDHeader carries a per-request identifier for log correlation
	RequestIDHeader = "X-Request-ID"

	// ContentTypeJSON is used for both Accept and Content-Type
	ContentTypeJSON = "application/json"
)

// API paths relative to the configured base URL
const (
	RegisterPath     = "/register/"
	LoginPath        = "/login/"
	TokenRefreshPath = "/token/refresh/"
	TodosPath        = "/todos/"
)
