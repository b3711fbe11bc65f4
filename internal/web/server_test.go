package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gavel/internal/model"
	appErr "gavel/pkg/errors"
)

type stubSubmissions struct {
	submission *model.Submission
	err        error
}

func (s *stubSubmissions) MarkJudging(ctx context.Context, id string) (bool, error) {
	return false, nil
}

func (s *stubSubmissions) FinishJudging(ctx context.Context, id string, final model.FinalResult) error {
	return nil
}

func (s *stubSubmissions) FindOne(ctx context.Context, id string) (*model.Submission, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.submission, nil
}

type stubQueue struct {
	pingErr error
}

func (q *stubQueue) Pop(ctx context.Context, wait time.Duration) (string, error) { return "", nil }
func (q *stubQueue) Push(ctx context.Context, payload string) error              { return nil }
func (q *stubQueue) Ping(ctx context.Context) error                              { return q.pingErr }
func (q *stubQueue) Close() error                                                { return nil }

func serve(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthzOK(t *testing.T) {
	s := NewServer(Config{Addr: ":0"}, &stubSubmissions{}, &stubQueue{})
	rec := serve(t, s, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHealthzQueueDown(t *testing.T) {
	q := &stubQueue{pingErr: appErr.New(appErr.QueueError)}
	s := NewServer(Config{Addr: ":0"}, &stubSubmissions{}, q)
	rec := serve(t, s, http.MethodGet, "/healthz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestGetSubmission(t *testing.T) {
	sub := &model.Submission{
		ID:      "s1",
		Verdict: model.VerdictAC,
	}
	s := NewServer(Config{Addr: ":0"}, &stubSubmissions{submission: sub}, &stubQueue{})
	rec := serve(t, s, http.MethodGet, "/api/v1/submissions/s1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data model.Submission `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.ID != "s1" || resp.Data.Verdict != model.VerdictAC {
		t.Errorf("data = %+v", resp.Data)
	}
}

func TestGetSubmissionNotFound(t *testing.T) {
	s := NewServer(Config{Addr: ":0"}, &stubSubmissions{err: appErr.New(appErr.SubmissionNotFound)}, &stubQueue{})
	rec := serve(t, s, http.MethodGet, "/api/v1/submissions/missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
