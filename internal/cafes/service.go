package cafes

import (
	"context"
	"strings"

	"github.com/angelmondragon/cafehop-backend/internal/discovery"
	"github.com/angelmondragon/cafehop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/logger"
	"go.uber.org/multierr"
)

type cafeRepository interface {
	ListActive(ctx context.Context) ([]models.Cafe, error)
	FindByID(ctx context.Context, id string) (*models.Cafe, error)
	ReplaceHours(ctx context.Context, cafeID string, hours []models.CafeHours) error
}

// Service exposes café reads for discovery and the hours settings screen. It
// satisfies discovery.CafeSource.
type Service interface {
	ListActive(ctx context.Context) ([]discovery.CafeSummary, error)
	Get(ctx context.Context, id string) (discovery.CafeSummary, error)
	UpdateHours(ctx context.Context, cafeID string, hours discovery.WeeklyHours) (discovery.CafeSummary, error)
}

type service struct {
	repo cafeRepository
	logg *logger.Logger
}

// NewService builds the café service.
func NewService(repo cafeRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cafe repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

// ListActive maps every active café. Malformed rows are reported once as a
// combined warning instead of failing the listing.
func (s *service) ListActive(ctx context.Context) ([]discovery.CafeSummary, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var problems error
	out := make([]discovery.CafeSummary, 0, len(rows))
	for _, row := range rows {
		summary, ok, err := toSummary(row)
		problems = multierr.Append(problems, err)
		if ok {
			out = append(out, summary)
		}
	}
	if problems != nil {
		count := len(multierr.Errors(problems))
		s.logg.Warn(s.logg.WithField(ctx, "problems", count), "malformed cafe records: "+problems.Error())
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id string) (discovery.CafeSummary, error) {
	if strings.TrimSpace(id) == "" {
		return discovery.CafeSummary{}, pkgerrors.New(pkgerrors.CodeValidation, "cafe id is required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return discovery.CafeSummary{}, err
	}
	summary, ok, err := toSummary(*row)
	if !ok {
		return discovery.CafeSummary{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cafe record is malformed")
	}
	if err != nil {
		s.logg.Warn(s.logg.WithCafeID(ctx, id), "cafe record partially malformed: "+err.Error())
	}
	return summary, nil
}

// UpdateHours replaces the whole weekly schedule. Days left out read as closed.
func (s *service) UpdateHours(ctx context.Context, cafeID string, hours discovery.WeeklyHours) (discovery.CafeSummary, error) {
	if strings.TrimSpace(cafeID) == "" {
		return discovery.CafeSummary{}, pkgerrors.New(pkgerrors.CodeValidation, "cafe id is required")
	}
	for weekday, day := range hours {
		if !discovery.ValidWeekday(weekday) {
			return discovery.CafeSummary{}, pkgerrors.New(pkgerrors.CodeValidation, "weekday must be between 1 and 7").WithDetails(map[string]any{
				"weekday": weekday,
			})
		}
		if !day.Validate() {
			return discovery.CafeSummary{}, pkgerrors.New(pkgerrors.CodeValidation, "opening window must be HH:MM with open before close").WithDetails(map[string]any{
				"weekday": weekday,
				"open":    day.Open,
				"close":   day.Close,
			})
		}
	}
	if _, err := s.repo.FindByID(ctx, cafeID); err != nil {
		return discovery.CafeSummary{}, err
	}
	if err := s.repo.ReplaceHours(ctx, cafeID, toHourRows(cafeID, hours)); err != nil {
		return discovery.CafeSummary{}, err
	}
	s.logg.Info(s.logg.WithCafeID(ctx, cafeID), "cafe hours updated")
	return s.Get(ctx, cafeID)
}
