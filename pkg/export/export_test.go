package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() Dataset {
	return Dataset{
		Title:   "Course conflicts",
		Columns: []string{"student", "issue"},
		Rows: []map[string]string{
			{"student": "S1", "issue": "duplicate_course_code"},
			{"student": "S2", "issue": "schedule_conflict, weeks 1-3"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestCSVRenderer(t *testing.T) {
	out, err := CSVRenderer{}.Render(sample())
	require.NoError(t, err)
	assert.Equal(t, "student,issue\nS1,duplicate_course_code\nS2,\"schedule_conflict, weeks 1-3\"\n", string(out))
}

func TestPDFRenderer(t *testing.T) {
	out, err := PDFRenderer{}.Render(sample())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestXLSXRenderer(t *testing.T) {
	out, err := XLSXRenderer{}.Render(sample())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	title, err := f.GetCellValue(xlsxSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Course conflicts", title)

	header, err := f.GetCellValue(xlsxSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "issue", header)

	value, err := f.GetCellValue(xlsxSheet, "A4")
	require.NoError(t, err)
	assert.Equal(t, "S2", value)
}

func TestRenderersRequireColumns(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatPDF, FormatXLSX} {
		r, err := RendererFor(format)
		require.NoError(t, err)
		_, err = r.Render(Dataset{})
		assert.ErrorIs(t, err, ErrNoColumns, string(format))
		assert.Equal(t, string(format), r.Extension())
	}
}
