package extract

import (
	"context"
	"os"
	"strings"

	"extractor/internal/matcher"
	"extractor/pkg/domain"

	"github.com/extrame/xls"
	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

// extractXLSX reads the workbook like a table: only the first sheet, with its
// first row taken as column labels and left out of the matched text.
func extractXLSX(_ context.Context, path string, domainFilters []string) ([]domain.Email, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheets[0])
	}

	return matchColumns(dropHeader(rows), domainFilters), nil
}

// extractXLS applies the same table rules as extractXLSX to BIFF workbooks.
func extractXLS(_ context.Context, path string, domainFilters []string) ([]domain.Email, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer fh.Close()

	wb, err := xls.OpenReader(fh, "utf-8")
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, errors.New("no worksheet")
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("no worksheet")
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for r := 0; r <= int(sheet.MaxRow); r++ {
		row := xlsRow(sheet, r)
		if row == nil {
			rows = append(rows, nil)

			continue
		}

		cells := make([]string, 0, row.LastCol()+1)
		for c := 0; c <= row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, trimTrailingEmpty(cells))
	}

	return matchColumns(dropHeader(rows), domainFilters), nil
}

// xlsRow returns row i of sheet, or nil when the sheet has no record for it.
// WorkSheet.Row dereferences the missing entry instead of returning nil.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()

	return sheet.Row(i)
}

func dropHeader(rows [][]string) [][]string {
	if len(rows) == 0 {
		return nil
	}

	return rows[1:]
}

// matchColumns joins the stringified cells of each column with a single
// space and matches every column blob on its own. Missing cells count as
// empty strings.
func matchColumns(rows [][]string, domainFilters []string) []domain.Email {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	var emails []domain.Email
	cells := make([]string, len(rows))
	for c := 0; c < width; c++ {
		for r, row := range rows {
			cells[r] = ""
			if c < len(row) {
				cells[r] = row[c]
			}
		}
		emails = append(emails, matcher.Match(strings.Join(cells, " "), domainFilters)...)
	}

	return emails
}

func trimTrailingEmpty(cells []string) []string {
	end := len(cells)
	for end > 0 && cells[end-1] == "" {
		end--
	}

	return cells[:end]
}
