package auth

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/srand/hookd/pkg/log"
	"github.com/srand/hookd/pkg/utils"
)

// Context key under which the verified request body is stored.
const BodyKey = "auth.body"

// Returns an echo middleware rejecting unauthenticated requests with 401.
// The request body is buffered for verification and restored for the handler.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			var body []byte
			if req.Body != nil {
				var err error
				body, err = io.ReadAll(req.Body)
				if err != nil {
					return readError(err)
				}
				req.Body.Close()
			}

			if err := a.Verify(req, body); err != nil {
				log.Debugf("nok - auth - %s %s from %s: %v", req.Method, req.URL.Path, c.RealIP(), err)
				return utils.HttpError(err)
			}

			req.Body = io.NopCloser(bytes.NewReader(body))
			c.Set(BodyKey, body)
			return next(c)
		}
	}
}

// Keeps HTTP errors raised by body readers, such as the 413 of a body limit.
func readError(err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return utils.HttpError(fmt.Errorf("%w: %v", utils.ErrBadRequest, err))
}

// Returns the body verified by the middleware.
func Body(c echo.Context) []byte {
	body, _ := c.Get(BodyKey).([]byte)
	return body
}
