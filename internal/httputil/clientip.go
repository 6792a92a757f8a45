package httputil

import (
	"net"
	"net/http"
)

// ClientIP returns the requesting client's address without the port.
// Behind a proxy, RealIP has already rewritten RemoteAddr to a bare IP;
// on a direct connection RemoteAddr is ip:port, and the ephemeral port
// must not leak into anything keyed by client address.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
