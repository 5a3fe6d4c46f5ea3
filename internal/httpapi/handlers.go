package httpapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sebguevara/instagram-scraping/internal/instagram"
)

const dateLayout = "2006-01-02"

func (s *Server) handleHealth(c echo.Context) error {
	if s.pinger != nil {
		if err := s.pinger.Ping(c.Request().Context()); err != nil {
			s.logger.Error().Err(err).Msg("health check database ping failed")
			return internalError(c, "database unreachable")
		}
	}
	return success(c, map[string]string{"status": "ok"})
}

func (s *Server) handleSyncPosts(c echo.Context) error {
	fieldErrors := make(map[string]string)

	days := 1
	if raw := strings.TrimSpace(c.QueryParam("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			fieldErrors["days"] = "must be an integer between 1 and 90"
		} else {
			days = parsed
		}
	}

	categoryID := 0
	if raw := strings.TrimSpace(c.QueryParam("category_id")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			fieldErrors["category_id"] = "must be a positive integer"
		} else {
			categoryID = parsed
		}
	}

	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	summary, err := s.instagram.SyncPosts(c.Request().Context(), instagram.SyncOptions{
		Days:       days,
		CategoryID: categoryID,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("instagram post sync failed")
		return internalError(c, "post sync failed")
	}
	return success(c, summary)
}

func (s *Server) handleSyncComments(c echo.Context) error {
	start, end, fieldErrors := parseWindow(c)
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	summary, err := s.instagram.SyncComments(c.Request().Context(), start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("instagram comment sync failed")
		return internalError(c, "comment sync failed")
	}
	return success(c, summary)
}

func (s *Server) handleSyncCommentCounts(c echo.Context) error {
	result, err := s.instagram.SyncCommentCounts(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("comment count sync failed")
		return internalError(c, "comment count sync failed")
	}
	return success(c, result)
}

func (s *Server) handleFacebookSyncComments(c echo.Context) error {
	start, end, fieldErrors := parseWindow(c)
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	summary, err := s.facebook.SyncComments(c.Request().Context(), start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("facebook comment sync failed")
		return internalError(c, "facebook comment sync failed")
	}
	return success(c, summary)
}

// parseWindow reads the start_date/end_date query params. The end date is
// inclusive: the window covers the whole end day.
func parseWindow(c echo.Context) (time.Time, time.Time, map[string]string) {
	fieldErrors := make(map[string]string)

	start, err := time.Parse(dateLayout, strings.TrimSpace(c.QueryParam("start_date")))
	if err != nil {
		fieldErrors["start_date"] = "must be a date in YYYY-MM-DD form"
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(c.QueryParam("end_date")))
	if err != nil {
		fieldErrors["end_date"] = "must be a date in YYYY-MM-DD form"
	}
	if len(fieldErrors) > 0 {
		return time.Time{}, time.Time{}, fieldErrors
	}

	end = end.Add(24*time.Hour - time.Nanosecond)
	if end.Before(start) {
		fieldErrors["end_date"] = "must not be before start_date"
		return time.Time{}, time.Time{}, fieldErrors
	}
	return start, end, nil
}
