package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shopsync/backend/internal/interfaces/http/dto"
)

// SwaggerConfig controls who may read the API docs
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
	// AllowedIPs holds addresses or CIDR prefixes; empty allows everyone.
	// Unparsable entries are skipped, config validation rejects them earlier.
	AllowedIPs []string
}

// ParseAllowedIPs turns addresses and CIDR prefixes into prefixes; a bare
// address becomes a single-host prefix
func ParseAllowedIPs(entries []string) ([]netip.Prefix, []string) {
	var (
		prefixes []netip.Prefix
		invalid  []string
	)
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				invalid = append(invalid, raw)
				continue
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			invalid = append(invalid, raw)
			continue
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, invalid
}

// SwaggerProtection guards the docs route. Disabled docs answer 404, a
// client outside the allowlist gets 403, and with RequireAuth the operator
// middleware decides the rest.
func SwaggerProtection(cfg SwaggerConfig, operatorAuth gin.HandlerFunc) gin.HandlerFunc {
	allowed, _ := ParseAllowedIPs(cfg.AllowedIPs)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeNotFound, "API documentation is not available", GetRequestID(c)))
			return
		}

		if len(allowed) > 0 && !clientAllowed(c.ClientIP(), allowed) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Access to API documentation is restricted", GetRequestID(c)))
			return
		}

		if cfg.RequireAuth && operatorAuth != nil {
			operatorAuth(c)
			if c.IsAborted() {
				return
			}
		}
		c.Next()
	}
}

func clientAllowed(clientIP string, allowed []netip.Prefix) bool {
	addr, err := netip.ParseAddr(clientIP)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range allowed {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
