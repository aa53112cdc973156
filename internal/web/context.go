package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/clinicroster/internal/core"
)

// withRequestMetadata carries the client address into the import logs.
// RemoteAddr has already been resolved by TrustedRealIP.
func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return core.ContextWithClientIP(ctx, ip)
}
