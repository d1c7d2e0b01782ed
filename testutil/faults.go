package testutil

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/influencore/apiclient/apierror"
)

// Fault alters how the backend answers one request.
type Fault struct {
	// Delay is waited before anything else happens.
	Delay time.Duration
	// Status, when set, short-circuits the handler with this status.
	Status int
	// Body is sent with Status. Nil sends the standard error payload for
	// the status, if there is one.
	Body any
	// Drop closes the connection without writing a response.
	Drop bool
}

// Delay holds the request for d before handling it normally.
func Delay(d time.Duration) Fault { return Fault{Delay: d} }

// Status answers with code and the standard error payload.
func Status(code int) Fault { return Fault{Status: code} }

// StatusWithBody answers with code and body. A string body is sent raw.
func StatusWithBody(code int, body any) Fault { return Fault{Status: code, Body: body} }

// Drop closes the connection without a response.
func Drop() Fault { return Fault{Drop: true} }

// apply runs f and reports whether the request was fully handled.
func (f Fault) apply(c *gin.Context) bool {
	if f.Delay > 0 {
		timer := time.NewTimer(f.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-c.Request.Context().Done():
			c.Abort()
			return true
		}
	}

	if f.Drop {
		c.Abort()
		if conn, _, err := c.Writer.Hijack(); err == nil {
			_ = conn.Close()
		}
		return true
	}

	if f.Status == 0 {
		return false
	}

	switch body := f.Body.(type) {
	case nil:
		if appErr := errorForStatus(f.Status); appErr != nil {
			c.AbortWithStatusJSON(f.Status, appErr.Response())
		} else {
			c.AbortWithStatus(f.Status)
		}
	case string:
		c.Data(f.Status, "text/plain; charset=utf-8", []byte(body))
		c.Abort()
	default:
		c.AbortWithStatusJSON(f.Status, body)
	}
	return true
}

func errorForStatus(status int) *apierror.AppError {
	switch status {
	case http.StatusTooManyRequests:
		return apierror.RateLimited()
	case http.StatusServiceUnavailable:
		return apierror.ServiceUnavailable("video service")
	case http.StatusInternalServerError:
		return apierror.Internal(nil)
	case http.StatusUnauthorized:
		return apierror.Unauthorized("")
	default:
		return nil
	}
}
