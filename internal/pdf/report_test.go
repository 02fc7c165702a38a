package pdf

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habboverify/internal/models"
)

func TestRecordsReport(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var records []models.VerifiedUser
	for i := 0; i < 80; i++ {
		records = append(records, models.VerifiedUser{
			UserID:    fmt.Sprintf("1000%d", i),
			Habbo:     fmt.Sprintf("Hábbo%d", i),
			Verified:  i%2 == 0,
			CreatedAt: now.Add(-time.Duration(i) * time.Hour),
		})
	}

	var buf bytes.Buffer
	err := NewReportGenerator("").RecordsReport(&buf, ReportData{GuildID: "42", Records: records, GeneratedAt: now})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestRecordsReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReportGenerator("").RecordsReport(&buf, ReportData{GeneratedAt: time.Now()}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestRecordsReportMissingFont(t *testing.T) {
	var buf bytes.Buffer
	err := NewReportGenerator("/nonexistent/font.ttf").RecordsReport(&buf, ReportData{GeneratedAt: time.Now()})
	assert.Error(t, err)
}
