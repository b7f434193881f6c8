package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prasit-p/school-register-api/internal/models"
	appErrors "github.com/prasit-p/school-register-api/pkg/errors"
)

type sectionReader interface {
	FindByID(ctx context.Context, id int64) (*models.Section, error)
	ListOpen(ctx context.Context, filter models.SectionFilter) ([]models.SectionSummary, error)
	ListSchedules(ctx context.Context, sectionIDs []int64) ([]models.SectionScheduleRow, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type termResolver interface {
	ResolveCascade(ctx context.Context, year string, semester int, scope TermScope) (*models.TermResolution, error)
	ResolveActive(ctx context.Context) (*models.Semester, error)
}

// CatalogQuery describes a catalog search or browse request. Year empty
// means no term filter.
type CatalogQuery struct {
	Keyword     string
	Year        string
	Semester    int
	ClassroomID int64
}

// CatalogResult couples the section list with the term resolution that
// produced it, so callers can show which term is actually displayed.
type CatalogResult struct {
	Sections []models.SectionSummary `json:"sections"`
	Term     *models.TermResolution  `json:"term,omitempty"`

	// CacheHit reports whether the result came from the cache; it is
	// surfaced in response meta, never in the payload.
	CacheHit bool `json:"-"`
}

// CatalogService is the read-only query surface over open sections.
type CatalogService struct {
	sections sectionReader
	terms    termResolver
	cache    catalogCache
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewCatalogService constructs a CatalogService. cache and metrics may be
// nil to disable caching and instrumentation.
func NewCatalogService(sections sectionReader, terms termResolver, cache catalogCache, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{sections: sections, terms: terms, cache: cache, cacheTTL: cacheTTL, metrics: metrics, logger: logger}
}

// Search returns open sections matching the query. A term filter that
// resolves to nothing yields an empty list, not an error: "no sections in
// that term" is an expected outcome.
func (s *CatalogService) Search(ctx context.Context, query CatalogQuery) (*CatalogResult, error) {
	filter := models.SectionFilter{Keyword: query.Keyword, ClassroomID: query.ClassroomID}

	var term *models.TermResolution
	if query.Year != "" {
		resolved, err := s.terms.ResolveCascade(ctx, query.Year, query.Semester, TermScope{Sections: true})
		if err != nil {
			var appErr *appErrors.Error
			if errors.As(err, &appErr) && appErr.Code == appErrors.ErrTermNotFound.Code {
				return &CatalogResult{Sections: []models.SectionSummary{}}, nil
			}
			return nil, err
		}
		term = resolved
		filter.SemesterID = resolved.SemesterID
	}

	if cached := s.fromCache(ctx, filter); cached != nil {
		cached.Term = term
		cached.CacheHit = true
		return cached, nil
	}

	queryStart := time.Now()
	sections, err := s.sections.ListOpen(ctx, filter)
	s.metrics.ObserveDBQuery("catalog_sections", time.Since(queryStart))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	if err := s.attachSchedules(ctx, sections); err != nil {
		return nil, err
	}

	result := &CatalogResult{Sections: sections, Term: term}
	s.toCache(ctx, filter, result)
	return result, nil
}

// Browse is Search with the active semester filled in when the query
// names no term.
func (s *CatalogService) Browse(ctx context.Context, query CatalogQuery) (*CatalogResult, error) {
	if query.Year == "" {
		active, err := s.terms.ResolveActive(ctx)
		if err != nil {
			return nil, err
		}
		query.Year = active.AcademicYear
		query.Semester = active.Semester
	}
	return s.Search(ctx, query)
}

// attachSchedules bulk-loads and groups normalized schedule entries onto
// the summaries.
func (s *CatalogService) attachSchedules(ctx context.Context, sections []models.SectionSummary) error {
	if len(sections) == 0 {
		return nil
	}
	ids := make([]int64, len(sections))
	for i, sec := range sections {
		ids[i] = sec.SectionID
	}
	rows, err := s.sections.ListSchedules(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}
	bySection := make(map[int64][]models.ScheduleEntry, len(sections))
	for _, row := range rows {
		bySection[row.SectionID] = append(bySection[row.SectionID], row.ScheduleEntry)
	}
	for i := range sections {
		entries := bySection[sections[i].SectionID]
		if entries == nil {
			entries = []models.ScheduleEntry{}
		}
		sections[i].Schedules = entries
	}
	return nil
}

func (s *CatalogService) fromCache(ctx context.Context, filter models.SectionFilter) *CatalogResult {
	if s.cache == nil {
		return nil
	}
	start := time.Now()
	var result CatalogResult
	err := s.cache.Get(ctx, catalogCacheKey(filter), &result)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("catalog cache read failed", zap.Error(err))
		}
		return nil
	}
	return &result
}

func (s *CatalogService) toCache(ctx context.Context, filter models.SectionFilter, result *CatalogResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, catalogCacheKey(filter), result, s.cacheTTL); err != nil {
		s.logger.Warn("catalog cache write failed", zap.Error(err))
	}
}

func catalogCacheKey(filter models.SectionFilter) string {
	return fmt.Sprintf("catalog:%d:%d:%s", filter.SemesterID, filter.ClassroomID, strings.ToLower(filter.Keyword))
}
