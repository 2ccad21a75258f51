package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Question", "Type", "Details"},
		Rows: []map[string]string{
			{"Question": "Clarity", "Type": "rating", "Details": "Response: 5 (Strongly Agree): 2\nResponse: 3 (Neutral): 1"},
			{"Question": "General Comments", "Type": "text", "Details": "Great course"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Question", "Type", "Details"}, records[0])
	assert.Equal(t, "Response: 5 (Strongly Agree): 2\nResponse: 3 (Neutral): 1", records[1][2])
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(xlsxSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Question", header)
	value, err := f.GetCellValue(xlsxSheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "General Comments", value)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Evaluation Report")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewXLSXExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.True(t, FormatXLSX.Valid())
	assert.False(t, Format("docx").Valid())
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
}
