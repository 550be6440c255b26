package constants

const (
	// HTTP Headers
	HeaderContentType = "Content-Type"
	HeaderXRequestID  = "X-Request-ID"

	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html; charset=utf-8"

	// Context keys
	ContextKeyUserID      = "user_id"
	ContextKeyAnonymousID = "anon_id"
	ContextKeyRequestID   = "request_id"

	// Route paths referenced outside the router
	PathAuthStart    = "/auth/"
	PathAuthCallback = "/auth/callback"
	PathEmailForm    = "/auth/email"
)
