package controller

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/prestamos-sa/prestamos/web/entity"

	"github.com/gin-gonic/gin"
)

// getRemoteIp extracts the real IP address from the request headers or remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}

// pureJsonMsg sends a JSON message response with a custom status code.
func pureJsonMsg(c *gin.Context, statusCode int, success bool, msg string) {
	c.JSON(statusCode, entity.Msg{
		Success: success,
		Msg:     msg,
	})
}

// badRequest reports a body or query that failed binding.
func badRequest(c *gin.Context, err error) {
	pureJsonMsg(c, http.StatusBadRequest, false, I18nWeb(c, "request.invalid")+": "+err.Error())
}

// pathID parses the :id parameter. An id that is not a positive integer
// cannot exist, so the caller answers 404.
func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
