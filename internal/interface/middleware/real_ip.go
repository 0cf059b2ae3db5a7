package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// CtxRealIPKey holds the resolved client address.
const CtxRealIPKey = "real_ip"

// RealIP resolves the client address once per request and stores it under
// CtxRealIPKey for the rate limiter and access logs.
//
// Proxy headers are only honoured with trustProxyHeaders set, i.e. when the
// API sits behind Cloudflare or a load balancer that overwrites them. Order:
// CF-Connecting-IP, the first valid X-Forwarded-For entry, X-Real-IP, then
// gin's ClientIP.
func RealIP(trustProxyHeaders bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := ""
		if trustProxyHeaders {
			ip = forwardedIP(c)
		}
		if ip == "" {
			ip = c.ClientIP()
		}
		c.Set(CtxRealIPKey, ip)
		c.Next()
	}
}

func forwardedIP(c *gin.Context) string {
	if ip := parseIP(c.GetHeader("CF-Connecting-IP")); ip != "" {
		return ip
	}
	for _, part := range strings.Split(c.GetHeader("X-Forwarded-For"), ",") {
		if ip := parseIP(part); ip != "" {
			return ip
		}
	}
	return parseIP(c.GetHeader("X-Real-IP"))
}

func parseIP(raw string) string {
	if ip := net.ParseIP(strings.TrimSpace(raw)); ip != nil {
		return ip.String()
	}
	return ""
}

// ipFromCtx returns the address set by RealIP, or gin's view of it when the
// middleware did not run.
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString(CtxRealIPKey); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
