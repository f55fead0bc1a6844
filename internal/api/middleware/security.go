package middleware

import (
	"github.com/gin-gonic/gin"
)

// apiSecurityHeaders 目录服务只返回 JSON 与 xlsx 附件
var apiSecurityHeaders = [][2]string{
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	// 报告只允许下载保存，不在浏览器上下文中直接打开
	{"X-Download-Options", "noopen"},
	{"Cross-Origin-Resource-Policy", "same-site"},
	// 版本与先修数据随时可能变化
	{"Cache-Control", "no-store"},
}

// SecurityHeaders 安全 HTTP 头中间件
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range apiSecurityHeaders {
			c.Header(h[0], h[1])
		}
		c.Next()
	}
}
