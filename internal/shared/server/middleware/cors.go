package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMaxAge        = 600
	corsAllowMethods  = "GET,POST,PUT,OPTIONS"
	corsAllowHeaders  = "Content-Type, Authorization, X-Request-Id"
	corsExposeHeaders = "X-Request-Id, Retry-After"
)

// originPolicy matches request origins against CORS_ALLOW_ORIGINS entries.
// Entries are exact origins, "*" or a single-level subdomain wildcard such as
// "https://*.vercel.app".
type originPolicy struct {
	exact    map[string]bool
	suffixes []wildcardOrigin
	any      bool
}

type wildcardOrigin struct {
	scheme string
	suffix string
}

func newOriginPolicy(entries []string) originPolicy {
	p := originPolicy{exact: map[string]bool{}}
	for _, e := range entries {
		e = strings.TrimRight(strings.TrimSpace(e), "/")
		switch {
		case e == "":
		case e == "*":
			p.any = true
		case strings.Contains(e, "://*."):
			scheme, host, _ := strings.Cut(e, "://*")
			p.suffixes = append(p.suffixes, wildcardOrigin{scheme: scheme + "://", suffix: host})
		default:
			p.exact[e] = true
		}
	}
	return p
}

// allow reports whether origin is allowed and whether credentials may be sent.
func (p originPolicy) allow(origin string) (allowed, credentials bool) {
	if p.exact[origin] {
		return true, true
	}
	for _, w := range p.suffixes {
		rest, ok := strings.CutPrefix(origin, w.scheme)
		if ok && strings.HasSuffix(rest, w.suffix) {
			label := strings.TrimSuffix(rest, w.suffix)
			if label != "" && !strings.ContainsAny(label, "./:") {
				return true, true
			}
		}
	}
	return p.any, false
}

// CORS sets CORS headers for allowed origins and answers every preflight with 204.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	policy := newOriginPolicy(allowedOrigins)
	maxAge := strconv.Itoa(corsMaxAge)

	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			h := c.Writer.Header()
			h.Add("Vary", "Origin")
			if allowed, creds := policy.allow(origin); allowed {
				if creds {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
				} else {
					h.Set("Access-Control-Allow-Origin", "*")
				}
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
				h.Set("Access-Control-Max-Age", maxAge)
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
