package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/domain"
	apperrors "github.com/alexlover8/rate-it-or-hate-it-sub001/internal/platform/errors"
)

type profileResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	VoteCount int64  `json:"voteCount"`
}

func (s *Server) handleMe(c echo.Context) error {
	user, err := s.app.GetProfile(c.Request().Context(), voterFromContext(c))
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NotFoundError("no profile for this session")
	}
	if err != nil {
		return apperrors.InternalError("failed to load profile", err)
	}

	resp := profileResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		VoteCount: user.VoteCount,
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
