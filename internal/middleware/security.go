package middleware

import (
	"net/http"
	"strings"

	"github.com/templui/goalcoach/internal/ctxkeys"
)

// SecurityHeaders sets the browser hardening headers. Images may come from the
// configured S3 endpoint, where chat attachments are presigned.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		scriptSrc := "'self'"
		if nonce := GetNonce(r.Context()); nonce != "" {
			scriptSrc += " 'nonce-" + nonce + "'"
		}
		imgSrc := []string{"'self'", "data:"}
		if cfg := ctxkeys.Config(r.Context()); cfg != nil && cfg.S3Endpoint != "" {
			imgSrc = append(imgSrc, cfg.S3Endpoint)
		}
		h.Set("Content-Security-Policy", strings.Join([]string{
			"default-src 'self'",
			"script-src " + scriptSrc,
			"style-src 'self' 'unsafe-inline'",
			"img-src " + strings.Join(imgSrc, " "),
			"connect-src 'self'",
			"frame-ancestors 'none'",
		}, "; "))

		next.ServeHTTP(w, r)
	})
}
