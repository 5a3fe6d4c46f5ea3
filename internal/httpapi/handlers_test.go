package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sebguevara/instagram-scraping/internal/facebook"
	"github.com/sebguevara/instagram-scraping/internal/instagram"
)

type stubInstagram struct {
	opts    instagram.SyncOptions
	start   time.Time
	end     time.Time
	summary instagram.Summary
	err     error
}

func (s *stubInstagram) SyncPosts(_ context.Context, opts instagram.SyncOptions) (instagram.Summary, error) {
	s.opts = opts
	return s.summary, s.err
}

func (s *stubInstagram) SyncComments(_ context.Context, start, end time.Time) (instagram.Summary, error) {
	s.start, s.end = start, end
	return s.summary, s.err
}

func (s *stubInstagram) SyncCommentCounts(_ context.Context) (instagram.CountSyncSummary, error) {
	return instagram.CountSyncSummary{Summary: s.summary}, s.err
}

type stubFacebook struct {
	summary facebook.Summary
	err     error
}

func (s *stubFacebook) SyncComments(_ context.Context, _, _ time.Time) (facebook.Summary, error) {
	return s.summary, s.err
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(_ context.Context) error { return s.err }

func newTestContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeJSend(t *testing.T, rec *httptest.ResponseRecorder) jsendResponse {
	t.Helper()
	var resp jsendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHandleSyncPosts_ParsesQueryParams(t *testing.T) {
	ig := &stubInstagram{summary: instagram.Summary{Created: 3}}
	server := NewServer(ig, &stubFacebook{}, stubPinger{}, zerolog.Nop(), Options{})

	c, rec := newTestContext(http.MethodPost, "/api/instagram/posts/sync?days=7&category_id=4")
	if err := server.handleSyncPosts(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ig.opts.Days != 7 || ig.opts.CategoryID != 4 {
		t.Fatalf("service received %+v", ig.opts)
	}
	if resp := decodeJSend(t, rec); resp.Status != "success" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestHandleSyncPosts_DefaultsAndValidation(t *testing.T) {
	ig := &stubInstagram{}
	server := NewServer(ig, &stubFacebook{}, stubPinger{}, zerolog.Nop(), Options{})

	c, rec := newTestContext(http.MethodPost, "/api/instagram/posts/sync")
	if err := server.handleSyncPosts(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK || ig.opts.Days != 1 || ig.opts.CategoryID != 0 {
		t.Fatalf("defaults: status=%d opts=%+v", rec.Code, ig.opts)
	}

	c, rec = newTestContext(http.MethodPost, "/api/instagram/posts/sync?days=abc")
	if err := server.handleSyncPosts(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for bad days", rec.Code)
	}
	if resp := decodeJSend(t, rec); resp.Status != "fail" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestHandleSyncPosts_SystemicFailureIs500(t *testing.T) {
	ig := &stubInstagram{err: errors.New("apify unreachable")}
	server := NewServer(ig, &stubFacebook{}, stubPinger{}, zerolog.Nop(), Options{})

	c, rec := newTestContext(http.MethodPost, "/api/instagram/posts/sync")
	if err := server.handleSyncPosts(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp := decodeJSend(t, rec); resp.Status != "error" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestHandleSyncComments_WindowParsing(t *testing.T) {
	ig := &stubInstagram{}
	server := NewServer(ig, &stubFacebook{}, stubPinger{}, zerolog.Nop(), Options{})

	c, rec := newTestContext(http.MethodPost,
		"/api/instagram/comments/sync?start_date=2025-04-01&end_date=2025-04-03")
	if err := server.handleSyncComments(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	wantStart := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if !ig.start.Equal(wantStart) {
		t.Fatalf("start = %v", ig.start)
	}
	// End date is inclusive: the window runs to the end of the day.
	if ig.end.Day() != 3 || ig.end.Hour() != 23 {
		t.Fatalf("end = %v", ig.end)
	}

	for _, target := range []string{
		"/api/instagram/comments/sync",
		"/api/instagram/comments/sync?start_date=04-01-2025&end_date=2025-04-03",
		"/api/instagram/comments/sync?start_date=2025-04-03&end_date=2025-04-01",
	} {
		c, rec = newTestContext(http.MethodPost, target)
		if err := server.handleSyncComments(c); err != nil {
			t.Fatalf("handler(%s): %v", target, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status for %s = %d, want 400", target, rec.Code)
		}
	}
}

func TestHandleFacebookSyncComments(t *testing.T) {
	fb := &stubFacebook{summary: facebook.Summary{Created: 2}}
	server := NewServer(&stubInstagram{}, fb, stubPinger{}, zerolog.Nop(), Options{})

	c, rec := newTestContext(http.MethodPost,
		"/api/facebook/comments/sync?start_date=2025-04-01&end_date=2025-04-02")
	if err := server.handleFacebookSyncComments(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	server := NewServer(&stubInstagram{}, &stubFacebook{}, stubPinger{}, zerolog.Nop(), Options{})
	c, rec := newTestContext(http.MethodGet, "/healthz")
	if err := server.handleHealth(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	down := NewServer(&stubInstagram{}, &stubFacebook{}, stubPinger{err: errors.New("no route to host")}, zerolog.Nop(), Options{})
	c, rec = newTestContext(http.MethodGet, "/healthz")
	if err := down.handleHealth(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 when database is down", rec.Code)
	}
}
