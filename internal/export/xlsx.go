// Package export renders the candidate pipeline as spreadsheet bytes.
package export

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"talent-pipeline/internal/storage"
)

// SheetName is the worksheet holding the candidate rows.
const SheetName = "Candidates"

// rationaleLimit keeps rationale cells readable.
const rationaleLimit = 280

var headers = []string{
	"Candidate ID",
	"Full Name",
	"Email",
	"Role",
	"Stage",
	"Score",
	"Skills",
	"Rationale",
	"Created At",
}

// CandidatesXLSX returns a workbook with one row per candidate, in the given order.
func CandidatesXLSX(candidates []*storage.Candidate) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"; rename it rather than leaving an empty tab.
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("xlsx header: %w", err)
	}

	for i, c := range candidates {
		values := []interface{}{
			c.ID.String(),
			c.FullName,
			c.Email,
			c.Role,
			c.Stage.String(),
			c.Scoring.Score,
			strings.Join(c.Scoring.Skills, ", "),
			truncate(c.Scoring.Rationale, rationaleLimit),
			c.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 38) // id
	_ = f.SetColWidth(SheetName, "B", "D", 24)
	_ = f.SetColWidth(SheetName, "E", "F", 12)
	_ = f.SetColWidth(SheetName, "G", "G", 40) // skills
	_ = f.SetColWidth(SheetName, "H", "H", 60) // rationale
	_ = f.SetColWidth(SheetName, "I", "I", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
