package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/cafehop-backend/internal/reviews"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
)

type stubReviews struct {
	list        []reviews.Review
	summary     reviews.Summary
	err         error
	lastCreate  reviews.CreateInput
	lastRating  int
	lastReplyID string
	lastReply   string
}

func (s *stubReviews) Create(ctx context.Context, input reviews.CreateInput) (reviews.Review, error) {
	s.lastCreate = input
	if s.err != nil {
		return reviews.Review{}, s.err
	}
	return reviews.Review{ID: "rev_1", CafeID: input.CafeID, AuthorName: input.AuthorName, Rating: input.Rating, Body: input.Body}, nil
}

func (s *stubReviews) List(ctx context.Context, cafeID string, rating int) ([]reviews.Review, error) {
	s.lastRating = rating
	return s.list, s.err
}

func (s *stubReviews) Summary(ctx context.Context, cafeID string) (reviews.Summary, error) {
	return s.summary, s.err
}

func (s *stubReviews) Reply(ctx context.Context, cafeID, reviewID, text string) (reviews.Review, error) {
	s.lastReplyID = reviewID
	s.lastReply = text
	if s.err != nil {
		return reviews.Review{}, s.err
	}
	return reviews.Review{ID: reviewID, CafeID: cafeID, Reply: &reviews.Reply{Text: text, CreatedAt: time.Now()}}, nil
}

func TestReviewsListFiltersByRating(t *testing.T) {
	svc := &stubReviews{list: []reviews.Review{{ID: "rev_1", Rating: 4}}}
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/cafes/cafe-1/reviews?rating=4", nil), map[string]string{"cafeId": "cafe-1"})
	resp := httptest.NewRecorder()
	ReviewsList(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastRating != 4 {
		t.Fatalf("expected rating filter 4, got %d", svc.lastRating)
	}
	var envelope struct {
		Data reviewListResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Count != 1 || envelope.Data.Reviews[0].ID != "rev_1" {
		t.Fatalf("unexpected body: %+v", envelope.Data)
	}

	for _, target := range []string{"/api/v1/cafes/cafe-1/reviews?rating=6", "/api/v1/cafes/cafe-1/reviews?rating=five"} {
		req := withURLParams(httptest.NewRequest(http.MethodGet, target, nil), map[string]string{"cafeId": "cafe-1"})
		resp := httptest.NewRecorder()
		ReviewsList(svc, nil).ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", target, resp.Code)
		}
	}
}

func TestReviewCreateMapsPayload(t *testing.T) {
	svc := &stubReviews{}
	body := `{"author_name":"  Ana  ","rating":5,"body":"Best cortado in town"}`
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/api/v1/cafes/cafe-1/reviews", strings.NewReader(body)), map[string]string{"cafeId": "cafe-1"})
	resp := httptest.NewRecorder()
	ReviewCreate(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastCreate.CafeID != "cafe-1" || svc.lastCreate.AuthorName != "Ana" || svc.lastCreate.Rating != 5 {
		t.Fatalf("unexpected input: %+v", svc.lastCreate)
	}

	req = withURLParams(httptest.NewRequest(http.MethodPost, "/api/v1/cafes/cafe-1/reviews", strings.NewReader(`{"author_name":"Ana","rating":9,"body":"x"}`)), map[string]string{"cafeId": "cafe-1"})
	resp = httptest.NewRecorder()
	ReviewCreate(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestReviewReplyConflict(t *testing.T) {
	svc := &stubReviews{}
	params := map[string]string{"cafeId": "cafe-1", "reviewId": "rev_9"}
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/api/v1/cafes/cafe-1/reviews/rev_9/reply", strings.NewReader(`{"text":"Thanks for visiting us!"}`)), params)
	resp := httptest.NewRecorder()
	ReviewReply(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastReplyID != "rev_9" || svc.lastReply != "Thanks for visiting us!" {
		t.Fatalf("unexpected reply call: %s %q", svc.lastReplyID, svc.lastReply)
	}

	svc.err = pkgerrors.New(pkgerrors.CodeConflict, "review already has a reply")
	req = withURLParams(httptest.NewRequest(http.MethodPost, "/api/v1/cafes/cafe-1/reviews/rev_9/reply", strings.NewReader(`{"text":"Thanks again, truly!"}`)), params)
	resp = httptest.NewRecorder()
	ReviewReply(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeConflict) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestReviewsSummary(t *testing.T) {
	svc := &stubReviews{summary: reviews.Summary{CafeID: "cafe-1", Average: 4.5, Count: 2, Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 1, 5: 1}}}
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/cafes/cafe-1/reviews/summary", nil), map[string]string{"cafeId": "cafe-1"})
	resp := httptest.NewRecorder()
	ReviewsSummary(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data reviews.Summary `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Average != 4.5 || envelope.Data.Distribution[5] != 1 {
		t.Fatalf("unexpected summary: %+v", envelope.Data)
	}
}
