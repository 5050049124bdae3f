package security

import (
	"fmt"
	"net/http"
)

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	CSP string

	// HSTS is only sent over TLS
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginOpener   string
	CrossOriginResource string
}

// DefaultHeadersConfig allows only same-origin scripts, styles and API calls.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: "default-src 'self'; " +
			"script-src 'self'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data:; " +
			"connect-src 'self'; " +
			"object-src 'none'; " +
			"frame-ancestors 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'",

		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,

		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "strict-origin-when-cross-origin",
		PermissionsPolicy:   "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:   "same-origin",
		CrossOriginResource: "same-origin",
	}
}

// Headers returns middleware that sets the configured security headers.
func Headers(config HeadersConfig) func(http.Handler) http.Handler {
	hsts := ""
	if config.HSTSMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d", config.HSTSMaxAge)
		if config.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
	}

	set := func(h http.Header, key, value string) {
		if value != "" {
			h.Set(key, value)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			set(h, "Content-Security-Policy", config.CSP)
			set(h, "X-Frame-Options", config.XFrameOptions)
			set(h, "X-Content-Type-Options", config.XContentTypeOptions)
			set(h, "Referrer-Policy", config.ReferrerPolicy)
			set(h, "Permissions-Policy", config.PermissionsPolicy)
			set(h, "Cross-Origin-Opener-Policy", config.CrossOriginOpener)
			set(h, "Cross-Origin-Resource-Policy", config.CrossOriginResource)
			if r.TLS != nil {
				set(h, "Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NoStore marks responses as uncacheable; used for API and export routes.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
