package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/domain"
	apperrors "github.com/alexlover8/rate-it-or-hate-it-sub001/internal/platform/errors"
)

type castVoteRequest struct {
	Vote string `json:"vote"`
}

func (s *Server) handleCheckEligibility(c echo.Context) error {
	itemID := c.Param("id")
	if itemID == "" {
		return apperrors.ValidationError("item id is required")
	}

	elig := s.app.CheckEligibility(c.Request().Context(), voterFromContext(c), itemID)
	if err := c.JSON(http.StatusOK, elig); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCastVote(c echo.Context) error {
	itemID := c.Param("id")
	if itemID == "" {
		return apperrors.ValidationError("item id is required")
	}

	var req castVoteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	vt, err := domain.ParseVoteType(req.Vote)
	if err != nil {
		return apperrors.ValidationError("vote must be one of rate, meh, hate").WithField("vote", req.Vote)
	}

	result := s.app.CastVote(c.Request().Context(), voterFromContext(c), itemID, vt)

	status := http.StatusOK
	if !result.Success {
		// Ineligibility is part of the result contract, not an HTTP
		// error; the client renders result.Error directly.
		status = http.StatusUnprocessableEntity
	}
	if err := c.JSON(status, result); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDeleteVote(c echo.Context) error {
	itemID := c.Param("id")
	if itemID == "" {
		return apperrors.ValidationError("item id is required")
	}

	deleted, err := s.app.DeleteVote(c.Request().Context(), voterFromContext(c), itemID)
	if err != nil {
		return apperrors.InternalError("failed to delete vote", err).WithField("item_id", itemID)
	}

	if err := c.JSON(http.StatusOK, map[string]bool{"deleted": deleted}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetStats(c echo.Context) error {
	itemID := c.Param("id")
	if itemID == "" {
		return apperrors.ValidationError("item id is required")
	}

	stats, err := s.app.GetStats(c.Request().Context(), voterFromContext(c), itemID)
	if err != nil {
		return apperrors.InternalError("failed to load item stats", err).WithField("item_id", itemID)
	}

	if err := c.JSON(http.StatusOK, stats); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
