package gate

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// NewPassthroughProxy builds a reverse proxy for a passthrough prefix. The
// upstream service performs its own authorization, so requests reach it
// without a local credential check. The original path, including the prefix,
// is preserved.
func NewPassthroughProxy(upstream string, logger *slog.Logger) (http.Handler, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("gate: parse upstream %q: %w", upstream, err)
	}
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if logger != nil {
			logger.Error("passthrough upstream", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
	}
	return proxy, nil
}
