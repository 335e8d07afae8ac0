package http

import (
	"fmt"
	"mime"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coinchimp/whistle/internal/errors"
)

// alertMiddleware counts inbound alerts and rejects bodies declared as
// anything but application/json or application/*+json. A request without Content-Type is let through and
// judged by its body.
func (s *Service) alertMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.metrics.AlertsReceived.Inc()

		ct := c.GetHeader("Content-Type")
		if ct == "" {
			c.Next()
			return
		}

		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			s.reject(c, errors.InvalidPayload(err))
			return
		}
		if mt != "application/json" && !(strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+json")) {
			s.reject(c, errors.InvalidPayload(fmt.Errorf("unsupported content type %q", mt)))
			return
		}

		c.Next()
	}
}
