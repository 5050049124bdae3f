package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"

	"teddy/internal/log"
)

var (
	suspiciousPatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		".git/", ".ssh", "<script", "union select", "etc/passwd", "cmd.exe",
	}
	scannerAgents = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan"}
)

const maxURLLength = 2048

// Detector resolves client addresses and flags requests that look like probes.
type Detector struct {
	trustedProxies []*net.IPNet
	suspicious     atomic.Int64
	logger         *log.Logger
}

// NewDetector trusts loopback and private networks as proxies.
func NewDetector(logger *log.Logger) *Detector {
	if logger == nil {
		logger = log.Discard()
	}
	d := &Detector{logger: logger.WithComponent(log.ComponentHTTP)}
	for _, cidr := range []string{"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "::1/128"} {
		if err := d.AddTrustedProxy(cidr); err != nil {
			panic(err)
		}
	}
	return d
}

// AddTrustedProxy adds a trusted proxy network
func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}

// IsSuspicious reports whether r matches a known probing pattern.
func (d *Detector) IsSuspicious(r *http.Request) bool {
	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	for _, p := range suspiciousPatterns {
		if strings.Contains(path, p) || strings.Contains(query, p) {
			return true
		}
	}
	ua := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range scannerAgents {
		if strings.Contains(ua, a) {
			return true
		}
	}
	switch r.Method {
	case "TRACE", "TRACK", "DEBUG", http.MethodConnect:
		return true
	}
	return len(r.URL.RequestURI()) > maxURLLength
}

// Middleware answers suspicious requests with 404 and logs them.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.IsSuspicious(r) {
			d.suspicious.Add(1)
			d.logger.WarnContext(r.Context(), "Suspicious request rejected",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, d.ClientIP(r),
				log.FieldUserAgent, r.Header.Get("User-Agent"))
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the caller's address. Forwarding headers are honoured
// only when the direct peer is a trusted proxy.
func (d *Detector) ClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}
	parsed := net.ParseIP(directIP)
	if parsed == nil || !d.isTrustedProxy(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// SuspiciousRequests returns how many requests were rejected.
func (d *Detector) SuspiciousRequests() int64 {
	return d.suspicious.Load()
}
