package reviews

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/cafehop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type reviewRepository interface {
	Create(ctx context.Context, review *models.Review) (float64, error)
	FindByID(ctx context.Context, cafeID, id string) (*models.Review, error)
	ListByCafe(ctx context.Context, cafeID string, rating int) ([]models.Review, error)
	CountByRating(ctx context.Context, cafeID string) ([]RatingCount, error)
	SaveReply(ctx context.Context, cafeID, id, text string, at time.Time) error
	EnsureCafe(ctx context.Context, cafeID string) error
}

// invalidator drops cached discovery listings after a café's rating moves.
type invalidator interface {
	Invalidate(ctx context.Context) error
}

// Service exposes customer reviews and the café's replies.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Review, error)
	List(ctx context.Context, cafeID string, rating int) ([]Review, error)
	Summary(ctx context.Context, cafeID string) (Summary, error)
	Reply(ctx context.Context, cafeID, reviewID, text string) (Review, error)
}

// CreateInput is a new customer review.
type CreateInput struct {
	CafeID     string
	AuthorName string
	Rating     int
	Body       string
}

// Options carries the optional collaborators of the service.
type Options struct {
	Discovery invalidator
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo       reviewRepository
	discovery  invalidator
	logg       *logger.Logger
	now        func() time.Time
	generateID func() string
}

// NewService builds the reviews service.
func NewService(repo reviewRepository, opts Options) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reviews repository required")
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, discovery: opts.Discovery, logg: logg, now: now, generateID: NewReviewID}, nil
}

// Create stores the review and refreshes the café's average rating. Discovery
// caches are dropped afterwards; a failed invalidation is logged, not returned.
func (s *service) Create(ctx context.Context, input CreateInput) (Review, error) {
	cafeID := strings.TrimSpace(input.CafeID)
	if cafeID == "" {
		return Review{}, pkgerrors.New(pkgerrors.CodeValidation, "cafe id is required")
	}
	if err := validateRating(input.Rating); err != nil {
		return Review{}, err
	}
	author := strings.TrimSpace(input.AuthorName)
	if author == "" {
		return Review{}, pkgerrors.New(pkgerrors.CodeValidation, "author name is required")
	}
	if len([]rune(author)) > MaxAuthorNameSize {
		return Review{}, pkgerrors.New(pkgerrors.CodeValidation, "author name is too long").WithDetails(map[string]any{"max_length": MaxAuthorNameSize})
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return Review{}, pkgerrors.New(pkgerrors.CodeValidation, "review text is required")
	}
	if len([]rune(body)) > MaxBodyLength {
		return Review{}, pkgerrors.New(pkgerrors.CodeValidation, "review text is too long").WithDetails(map[string]any{"max_length": MaxBodyLength})
	}

	row := &models.Review{
		ID:         s.generateID(),
		CafeID:     cafeID,
		AuthorName: author,
		Rating:     input.Rating,
		Body:       body,
		CreatedAt:  s.now().UTC().Truncate(time.Microsecond),
	}
	average, err := s.repo.Create(ctx, row)
	if err != nil {
		return Review{}, err
	}

	logCtx := s.logg.WithFields(s.logg.WithCafeID(ctx, cafeID), map[string]any{
		"review_id":   row.ID,
		"rating":      row.Rating,
		"cafe_rating": average,
	})
	s.logg.Info(logCtx, "review created")
	if s.discovery != nil {
		if err := s.discovery.Invalidate(ctx); err != nil {
			s.logg.Error(logCtx, "failed to invalidate cafe cache", err)
		}
	}
	return fromModel(*row), nil
}

// List returns the café's reviews newest first. A zero rating lists them all.
func (s *service) List(ctx context.Context, cafeID string, rating int) ([]Review, error) {
	cafeID = strings.TrimSpace(cafeID)
	if cafeID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cafe id is required")
	}
	if rating != 0 {
		if err := validateRating(rating); err != nil {
			return nil, err
		}
	}
	if err := s.repo.EnsureCafe(ctx, cafeID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByCafe(ctx, cafeID, rating)
	if err != nil {
		return nil, err
	}
	out := make([]Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

func (s *service) Summary(ctx context.Context, cafeID string) (Summary, error) {
	cafeID = strings.TrimSpace(cafeID)
	if cafeID == "" {
		return Summary{}, pkgerrors.New(pkgerrors.CodeValidation, "cafe id is required")
	}
	if err := s.repo.EnsureCafe(ctx, cafeID); err != nil {
		return Summary{}, err
	}
	counts, err := s.repo.CountByRating(ctx, cafeID)
	if err != nil {
		return Summary{}, err
	}
	return summarize(cafeID, counts), nil
}

// Reply attaches the café's answer. Each review takes one reply; the text is
// trimmed and must be at least MinReplyLength characters.
func (s *service) Reply(ctx context.Context, cafeID, reviewID, text string) (Review, error) {
	cafeID = strings.TrimSpace(cafeID)
	reviewID = strings.TrimSpace(reviewID)
	if cafeID == "" || reviewID == "" {
		return Review{}, pkgerrors.New(pkgerrors.CodeValidation, "cafe id and review id are required")
	}
	text = strings.TrimSpace(text)
	length := len([]rune(text))
	if length < MinReplyLength || length > MaxReplyLength {
		return Review{}, pkgerrors.New(pkgerrors.CodeValidation, "reply must be between 10 and 1000 characters").WithDetails(map[string]any{
			"min_length": MinReplyLength,
			"max_length": MaxReplyLength,
			"length":     length,
		})
	}

	existing, err := s.repo.FindByID(ctx, cafeID, reviewID)
	if err != nil {
		return Review{}, err
	}
	if existing.ReplyText != nil {
		return Review{}, alreadyRepliedError(reviewID)
	}

	at := s.now().UTC().Truncate(time.Microsecond)
	if err := s.repo.SaveReply(ctx, cafeID, reviewID, text, at); err != nil {
		return Review{}, err
	}
	existing.ReplyText = &text
	existing.RepliedAt = &at

	s.logg.Info(s.logg.WithField(s.logg.WithCafeID(ctx, cafeID), "review_id", reviewID), "review reply saved")
	return fromModel(*existing), nil
}

func validateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5").WithDetails(map[string]any{"rating": rating})
	}
	return nil
}

func roundRating(value float64) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(1).Float64()
	return rounded
}
