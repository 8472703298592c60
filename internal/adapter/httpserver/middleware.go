package httpserver

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/domain"
	apperrors "github.com/alexlover8/rate-it-or-hate-it-sub001/internal/platform/errors"
	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/platform/logging"
)

const contextKeyVoter = "voter"

// resolveIdentity resolves the caller's identity once per request and
// stores it in the echo context for the handlers.
func (s *Server) resolveIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		voter, err := s.resolver.Resolve(c.Request(), c.RealIP())
		if err != nil {
			if errors.Is(err, domain.ErrNoIdentity) {
				return apperrors.ValidationError(domain.ErrNoIdentity.Error())
			}
			return apperrors.InternalError("identity resolution failed", err)
		}
		c.Set(contextKeyVoter, voter)
		return next(c)
	}
}

func voterFromContext(c echo.Context) domain.Identity {
	voter, _ := c.Get(contextKeyVoter).(domain.Identity)
	return voter
}

// requestIDMiddleware tags every request with a short id that the
// logger attaches to all records for the request.
func requestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			b := make([]byte, 4)
			_, _ = rand.Read(b)

			req := c.Request()
			ctx := logging.WithRequestID(req.Context(), hex.EncodeToString(b))
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
