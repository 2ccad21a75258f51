package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

const generalCommentsBucket = "\x00general_comments"

type aggregateRepository interface {
	AggregateRows(ctx context.Context, filter models.AggregateFilter) ([]models.AggregateRow, error)
	FacultyScoreRows(ctx context.Context, facultyID int64) ([]models.FacultyScoreRow, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ReportService builds anonymised per-question reports from stored evaluations.
type ReportService struct {
	repo     aggregateRepository
	cache    reportCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewReportService constructs the aggregator. cache may be nil.
func NewReportService(repo aggregateRepository, cache reportCache, cacheTTL time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// AggregateCacheKey is the cache key of one filter combination.
func AggregateCacheKey(filter models.AggregateFilter) string {
	return fmt.Sprintf("reports:aggregate:%s:%s:%d:%d",
		strings.TrimSpace(filter.CourseCode), strings.TrimSpace(filter.Batch), filter.FacultyID, filter.TemplateID)
}

// Aggregate tallies matching evaluations. The bool reports a cache hit.
func (s *ReportService) Aggregate(ctx context.Context, filter models.AggregateFilter) (*models.AggregatedReport, bool, error) {
	filter.CourseCode = strings.TrimSpace(filter.CourseCode)
	filter.Batch = strings.TrimSpace(filter.Batch)
	key := AggregateCacheKey(filter)

	if s.cache != nil {
		var cached models.AggregatedReport
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			if cached.ReportData == nil {
				cached.ReportData = models.NewReportData()
			}
			return &cached, true, nil
		}
	}

	rows, err := s.repo.AggregateRows(ctx, filter)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load evaluations")
	}
	report := s.aggregate(rows)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache report", zap.String("key", key), zap.Error(err))
		}
	}
	return report, false, nil
}

type ratingTotal struct {
	sum   int
	count int
}

type reportBuilder struct {
	data    *models.ReportData
	labels  map[string]string
	owners  map[string]string
	ratings map[string]*ratingTotal
}

func newReportBuilder() *reportBuilder {
	return &reportBuilder{
		data:    models.NewReportData(),
		labels:  map[string]string{},
		owners:  map[string]string{},
		ratings: map[string]*ratingTotal{},
	}
}

// bucket returns the entry for key, creating it under a unique display label.
func (b *reportBuilder) bucket(key, text, questionID string, kind models.QuestionType, options []string) *models.QuestionReport {
	if label, ok := b.labels[key]; ok {
		entry, _ := b.data.Get(label)
		return entry
	}
	label := text
	if owner, taken := b.owners[label]; taken && owner != key {
		suffix := questionID
		if suffix == "" {
			suffix = "comment"
		}
		label = fmt.Sprintf("%s [%s]", text, suffix)
	}
	b.labels[key] = label
	b.owners[label] = key

	entry := &models.QuestionReport{QuestionID: questionID, Type: kind, Options: options}
	if kind != models.QuestionTypeText {
		entry.Counts = map[string]int{}
	}
	b.data.Put(label, entry)
	return entry
}

func (b *reportBuilder) add(q models.Question, answer models.Answer, answered bool) {
	entry := b.bucket(q.Key(), q.Text, q.ID, q.Kind.Type(), models.Options(q.Kind))
	if !answered || answer.Empty() {
		return
	}
	switch q.Kind.(type) {
	case models.RatingQuestion:
		value, ok := answer.Rating()
		if !ok {
			return
		}
		total, ok := b.ratings[q.Key()]
		if !ok {
			total = &ratingTotal{}
			b.ratings[q.Key()] = total
		}
		total.sum += value
		total.count++
		entry.Counts[answer.String()]++
	case models.MultipleChoiceQuestion:
		if answer.IsList() {
			for _, option := range answer.Values() {
				entry.Counts[option]++
			}
			return
		}
		entry.Counts[answer.String()]++
	case models.TextQuestion:
		entry.Comments = append(entry.Comments, answer.String())
	}
}

func (b *reportBuilder) comment(text string) {
	entry := b.bucket(generalCommentsBucket, models.GeneralCommentsKey, "", models.QuestionTypeText, nil)
	entry.Comments = append(entry.Comments, text)
}

func (b *reportBuilder) finish() *models.ReportData {
	for key, total := range b.ratings {
		if total.count == 0 {
			continue
		}
		entry, ok := b.data.Get(b.labels[key])
		if !ok {
			continue
		}
		avg := roundTo(float64(total.sum)/float64(total.count), 2)
		entry.Average = &avg
	}
	return b.data
}

func (s *ReportService) aggregate(rows []models.AggregateRow) *models.AggregatedReport {
	if len(rows) == 0 {
		return &models.AggregatedReport{Summary: models.ReportSummaryEmpty, ReportData: models.NewReportData()}
	}

	builder := newReportBuilder()
	for _, row := range rows {
		feedback, questions, ok := s.decodeRow(row.ID, row.Feedback, row.QuestionsSet)
		if !ok {
			continue
		}
		for _, q := range questions.Questions {
			if q.Kind == nil {
				continue
			}
			answer, answered := feedback.Lookup(q)
			builder.add(q, answer, answered)
		}
		if row.GeneralComment != nil && strings.TrimSpace(*row.GeneralComment) != "" {
			builder.comment(*row.GeneralComment)
		}
	}

	return &models.AggregatedReport{
		Summary:          models.ReportSummaryGenerated,
		TotalSubmissions: len(rows),
		ReportData:       builder.finish(),
	}
}

func (s *ReportService) decodeRow(id int64, rawFeedback, rawQuestions string) (models.Feedback, models.QuestionSet, bool) {
	var feedback models.Feedback
	if err := feedback.Scan(rawFeedback); err != nil {
		s.logger.Warn("skipping evaluation with undecodable feedback", zap.Int64("evaluation_id", id), zap.Error(err))
		return nil, models.QuestionSet{}, false
	}
	questions, err := models.ParseQuestionSet(rawQuestions)
	if err != nil {
		s.logger.Warn("skipping evaluation with undecodable question set", zap.Int64("evaluation_id", id), zap.Error(err))
		return nil, models.QuestionSet{}, false
	}
	return feedback, questions, true
}

// FacultyScores returns one average rating per evaluation of the faculty's courses.
// Evaluations without a numeric rating are left out.
func (s *ReportService) FacultyScores(ctx context.Context, facultyID int64) ([]models.FacultyScore, error) {
	rows, err := s.repo.FacultyScoreRows(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load faculty evaluations")
	}

	scores := make([]models.FacultyScore, 0, len(rows))
	for _, row := range rows {
		// Faculty rows carry no evaluation id; 0 marks them in the skip log.
		feedback, questions, ok := s.decodeRow(0, row.Feedback, row.QuestionsSet)
		if !ok {
			continue
		}
		sum, count := 0, 0
		for _, q := range questions.Questions {
			if _, isRating := q.Kind.(models.RatingQuestion); !isRating {
				continue
			}
			answer, answered := feedback.Lookup(q)
			if !answered {
				continue
			}
			if value, ok := answer.Rating(); ok {
				sum += value
				count++
			}
		}
		if count == 0 {
			continue
		}
		scores = append(scores, models.FacultyScore{
			CourseCode:         row.CourseCode,
			CourseName:         row.CourseName,
			EvaluationDate:     row.EvaluationDate,
			AverageRating:      roundTo(float64(sum)/float64(count), 2),
			NumRatingQuestions: count,
		})
	}
	return scores, nil
}
