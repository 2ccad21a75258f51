package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportDataKeepsOrder(t *testing.T) {
	avg := 4.5
	data := NewReportData()
	data.Put("Zeta", &QuestionReport{QuestionID: "z", Type: QuestionTypeRating, Counts: map[string]int{"5": 1, "4": 1}, Average: &avg})
	data.Put("Alpha", &QuestionReport{Type: QuestionTypeText, Comments: []string{"fine"}})
	data.Put(GeneralCommentsKey, &QuestionReport{Type: QuestionTypeText})

	report := AggregatedReport{Summary: ReportSummaryGenerated, TotalSubmissions: 2, ReportData: data}
	encoded, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"Report generated successfully.","total_submissions":2,"report_data":{
		"Zeta":{"question_id":"z","type":"rating","options":null,"data":{"4":1,"5":1},"average":4.5},
		"Alpha":{"type":"text","options":null,"data":{"comments":["fine"]}},
		"General Comments":{"type":"text","options":null,"data":{}}}}`, string(encoded))

	var decoded AggregatedReport
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, []string{"Zeta", "Alpha", GeneralCommentsKey}, decoded.ReportData.Keys())

	zeta, ok := decoded.ReportData.Get("Zeta")
	require.True(t, ok)
	assert.Equal(t, 1, zeta.Counts["5"])
	require.NotNil(t, zeta.Average)
	assert.Equal(t, 4.5, *zeta.Average)

	alpha, _ := decoded.ReportData.Get("Alpha")
	assert.Equal(t, []string{"fine"}, alpha.Comments)
}

func TestReportDataEmpty(t *testing.T) {
	encoded, err := json.Marshal(NewReportData())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(encoded))

	var decoded ReportData
	require.NoError(t, json.Unmarshal([]byte(`{}`), &decoded))
	assert.Equal(t, 0, decoded.Len())
	assert.Error(t, json.Unmarshal([]byte(`[]`), &decoded))
}
