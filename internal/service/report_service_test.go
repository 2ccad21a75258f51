package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/models"
)

const reportQuestions = `{"questions":[
	{"id":"q1","text":"Teaching quality","type":"rating","options":["5 (Excellent)","4 (Good)","3 (Average)"]},
	{"id":"q2","text":"Preferred format","type":"multiple_choice","options":["A","B","C"]},
	{"id":"q3","text":"Suggestions","type":"text"}]}`

type aggregateRepoStub struct {
	rows       []models.AggregateRow
	scores     []models.FacultyScoreRow
	calls      int
	lastFilter models.AggregateFilter
	err        error
}

func (s *aggregateRepoStub) AggregateRows(_ context.Context, filter models.AggregateFilter) ([]models.AggregateRow, error) {
	s.calls++
	s.lastFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func (s *aggregateRepoStub) FacultyScoreRows(context.Context, int64) ([]models.FacultyScoreRow, error) {
	return s.scores, s.err
}

type jsonCacheStub struct {
	items map[string][]byte
}

func (c *jsonCacheStub) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *jsonCacheStub) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.items == nil {
		c.items = map[string][]byte{}
	}
	c.items[key] = raw
	return nil
}

func evalRow(id int64, feedback string, comment *string) models.AggregateRow {
	return models.AggregateRow{ID: id, Feedback: feedback, QuestionsSet: reportQuestions, GeneralComment: comment}
}

func TestAggregateTalliesQuestions(t *testing.T) {
	repo := &aggregateRepoStub{rows: []models.AggregateRow{
		evalRow(1, `{"q1":"5 (Excellent)","q2":"A","q3":"More labs"}`, strPtr("Great course")),
		evalRow(2, `{"q1":"3 (Average)","q2":["A","B"]}`, nil),
		evalRow(3, `{"q1":"not a rating","q3":""}`, strPtr("  ")),
	}}
	svc := NewReportService(repo, nil, time.Minute, zap.NewNop())

	report, hit, err := svc.Aggregate(context.Background(), models.AggregateFilter{CourseCode: " CS101 "})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "CS101", repo.lastFilter.CourseCode)

	assert.Equal(t, models.ReportSummaryGenerated, report.Summary)
	assert.Equal(t, 3, report.TotalSubmissions)
	assert.Equal(t, []string{"Teaching quality", "Preferred format", "Suggestions", models.GeneralCommentsKey}, report.ReportData.Keys())

	rating, ok := report.ReportData.Get("Teaching quality")
	require.True(t, ok)
	require.NotNil(t, rating.Average)
	assert.Equal(t, 4.0, *rating.Average)
	assert.Equal(t, map[string]int{"5 (Excellent)": 1, "3 (Average)": 1}, rating.Counts)

	choice, _ := report.ReportData.Get("Preferred format")
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, choice.Counts)
	assert.Nil(t, choice.Average)

	text, _ := report.ReportData.Get("Suggestions")
	assert.Equal(t, []string{"More labs"}, text.Comments)

	general, _ := report.ReportData.Get(models.GeneralCommentsKey)
	assert.Equal(t, []string{"Great course"}, general.Comments)
}

func TestAggregateSkipsMalformedRows(t *testing.T) {
	repo := &aggregateRepoStub{rows: []models.AggregateRow{
		evalRow(1, `{"q1":"4 (Good)"}`, nil),
		evalRow(2, `{not json`, nil),
		{ID: 3, Feedback: `{"q1":"5 (Excellent)"}`, QuestionsSet: `{"questions":[{"text":"x","type":"slider"}]}`},
	}}
	svc := NewReportService(repo, nil, time.Minute, zap.NewNop())

	report, _, err := svc.Aggregate(context.Background(), models.AggregateFilter{})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalSubmissions)
	rating, ok := report.ReportData.Get("Teaching quality")
	require.True(t, ok)
	assert.Equal(t, 4.0, *rating.Average)
	assert.Equal(t, 1, rating.Counts["4 (Good)"])
}

func TestAggregateEmpty(t *testing.T) {
	svc := NewReportService(&aggregateRepoStub{}, nil, time.Minute, zap.NewNop())

	report, _, err := svc.Aggregate(context.Background(), models.AggregateFilter{Batch: "2030"})
	require.NoError(t, err)

	assert.Equal(t, models.ReportSummaryEmpty, report.Summary)
	assert.Zero(t, report.TotalSubmissions)
	assert.Zero(t, report.ReportData.Len())
}

func TestAggregateLabelCollision(t *testing.T) {
	questions := `{"questions":[
		{"id":"a","text":"Overall","type":"rating","options":["5"]},
		{"id":"b","text":"Overall","type":"text"}]}`
	repo := &aggregateRepoStub{rows: []models.AggregateRow{
		{ID: 1, Feedback: `{"a":"5","b":"fine"}`, QuestionsSet: questions},
	}}
	svc := NewReportService(repo, nil, time.Minute, zap.NewNop())

	report, _, err := svc.Aggregate(context.Background(), models.AggregateFilter{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Overall", "Overall [b]"}, report.ReportData.Keys())
	second, _ := report.ReportData.Get("Overall [b]")
	assert.Equal(t, "b", second.QuestionID)
	assert.Equal(t, []string{"fine"}, second.Comments)
}

func TestAggregateUsesCache(t *testing.T) {
	repo := &aggregateRepoStub{rows: []models.AggregateRow{evalRow(1, `{"q1":"5 (Excellent)"}`, nil)}}
	cache := &jsonCacheStub{}
	svc := NewReportService(repo, cache, time.Minute, zap.NewNop())
	filter := models.AggregateFilter{TemplateID: 7}

	_, hit, err := svc.Aggregate(context.Background(), filter)
	require.NoError(t, err)
	assert.False(t, hit)

	cached, hit, err := svc.Aggregate(context.Background(), filter)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 1, cached.TotalSubmissions)
	assert.Contains(t, cache.items, AggregateCacheKey(filter))
}

func TestAggregateRepositoryError(t *testing.T) {
	svc := NewReportService(&aggregateRepoStub{err: errors.New("boom")}, nil, time.Minute, zap.NewNop())

	_, _, err := svc.Aggregate(context.Background(), models.AggregateFilter{})
	assert.Error(t, err)
}

func TestFacultyScoresSkipsUnrated(t *testing.T) {
	repo := &aggregateRepoStub{scores: []models.FacultyScoreRow{
		{Feedback: `{"q1":"5 (Excellent)"}`, QuestionsSet: reportQuestions, CourseCode: "CS101", CourseName: "Intro", EvaluationDate: "2024-03-01"},
		{Feedback: `{"q3":"only text"}`, QuestionsSet: reportQuestions, CourseCode: "CS102", CourseName: "Data", EvaluationDate: "2024-03-02"},
	}}
	svc := NewReportService(repo, nil, time.Minute, zap.NewNop())

	scores, err := svc.FacultyScores(context.Background(), 3)
	require.NoError(t, err)

	require.Len(t, scores, 1)
	assert.Equal(t, "CS101", scores[0].CourseCode)
	assert.Equal(t, 5.0, scores[0].AverageRating)
	assert.Equal(t, 1, scores[0].NumRatingQuestions)
}

func TestAggregateGeneralCommentsLabelStaysPrintable(t *testing.T) {
	questions := `{"questions":[{"id":"gc","text":"General Comments","type":"text"}]}`
	repo := &aggregateRepoStub{rows: []models.AggregateRow{
		{ID: 1, Feedback: `{"gc":"from the form"}`, QuestionsSet: questions, GeneralComment: strPtr("free text")},
	}}
	svc := NewReportService(repo, nil, time.Minute, zap.NewNop())

	report, _, err := svc.Aggregate(context.Background(), models.AggregateFilter{})
	require.NoError(t, err)

	assert.Equal(t, []string{models.GeneralCommentsKey, models.GeneralCommentsKey + " [comment]"}, report.ReportData.Keys())
	for _, key := range report.ReportData.Keys() {
		assert.NotContains(t, key, "\x00")
	}
	form, _ := report.ReportData.Get(models.GeneralCommentsKey)
	assert.Equal(t, []string{"from the form"}, form.Comments)
	general, _ := report.ReportData.Get(models.GeneralCommentsKey + " [comment]")
	assert.Equal(t, []string{"free text"}, general.Comments)
}

func TestAggregateRatingAverages(t *testing.T) {
	agreement := `{"questions":[{"id":"r","text":"I learned a lot","type":"rating",
		"options":["5 (Strongly Agree)","4 (Agree)","3 (Neutral)","2 (Disagree)","1 (Strongly Disagree)"]}]}`
	cases := []struct {
		name    string
		answers []string
		average float64
		counts  map[string]int
	}{
		{
			name:    "agreement scale",
			answers: []string{"5 (Strongly Agree)", "3 (Neutral)", "4 (Agree)"},
			average: 4.0,
			counts:  map[string]int{"5 (Strongly Agree)": 1, "3 (Neutral)": 1, "4 (Agree)": 1},
		},
		{
			name:    "rounded to two places",
			answers: []string{"5 (Strongly Agree)", "4 (Agree)", "4 (Agree)"},
			average: 4.33,
			counts:  map[string]int{"5 (Strongly Agree)": 1, "4 (Agree)": 2},
		},
		{
			name:    "single answer",
			answers: []string{"1 (Strongly Disagree)"},
			average: 1.0,
			counts:  map[string]int{"1 (Strongly Disagree)": 1},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows := make([]models.AggregateRow, 0, len(tc.answers))
			for i, answer := range tc.answers {
				rows = append(rows, models.AggregateRow{
					ID:           int64(i + 1),
					Feedback:     `{"r":"` + answer + `"}`,
					QuestionsSet: agreement,
				})
			}
			svc := NewReportService(&aggregateRepoStub{rows: rows}, nil, time.Minute, zap.NewNop())

			report, _, err := svc.Aggregate(context.Background(), models.AggregateFilter{})
			require.NoError(t, err)
			entry, ok := report.ReportData.Get("I learned a lot")
			require.True(t, ok)
			require.NotNil(t, entry.Average)
			assert.Equal(t, tc.average, *entry.Average)
			assert.Equal(t, tc.counts, entry.Counts)
		})
	}
}
