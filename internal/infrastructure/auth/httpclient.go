package auth

import (
	"net/http"
	"time"
)

// providerTimeout bounds every outbound call. There are no retries: these
// calls run inside a browser redirect.
const providerTimeout = 15 * time.Second

func newProviderHTTPClient() *http.Client {
	return &http.Client{Timeout: providerTimeout}
}
