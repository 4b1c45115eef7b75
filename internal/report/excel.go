package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"voicecheck-go/internal/types"
)

const sheet = "Analysis"

// Write renders a completed job as an xlsx workbook: a summary block on top,
// one row per segment below.
func Write(w io.Writer, job types.Job) error {
	if job.Status != types.StatusCompleted || job.Summary == nil {
		return fmt.Errorf("job %s is not completed", job.ID)
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	summary := [][]interface{}{
		{"Job ID", job.ID},
		{"Source URL", job.SourceURL},
		{"Created At", job.CreatedAt.Format("2006-01-02 15:04:05 UTC")},
		{"Prediction", job.Summary.Prediction},
		{"Overall Probability", job.Summary.OverallProbability},
		{"Confidence", job.Summary.Confidence},
		{"Rationale", job.Summary.Rationale},
		{"AI-leaning Segments", job.Summary.SentenceStats.AILeaning},
		{"Human-leaning Segments", job.Summary.SentenceStats.HumanLeaning},
		{"Neutral Segments", job.Summary.SentenceStats.Neutral},
	}
	for i, row := range summary {
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	headerRow := len(summary) + 2
	header := []interface{}{"Text", "Start (s)", "End (s)", "Speaker", "AI Probability"}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", headerRow), &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, seg := range job.Segments {
		row := []interface{}{seg.Text, seg.StartTime, seg.EndTime, seg.Speaker, seg.AIProbability}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", headerRow+1+i), &row); err != nil {
			return fmt.Errorf("write segment row: %w", err)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 40)
	return f.Write(w)
}
