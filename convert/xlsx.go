package convert

import (
	"fmt"
	"strings"

	"bitbucket.org/mmdatafocus/ratings_backend/render"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// XLSXSerializer writes a structured document into a single worksheet:
// title block, header lines, then each section's heading, paragraphs and
// tables one after another.
type XLSXSerializer struct{}

func sheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	if len([]rune(name)) > 31 {
		name = string([]rune(name)[:31])
	}
	if name == "" {
		return defaultSheet
	}
	return name
}

func widestTable(doc *render.Document) int {
	width := 1
	for _, t := range doc.Tables() {
		if len(t.Columns) > width {
			width = len(t.Columns)
		}
	}
	return width
}

func (XLSXSerializer) Serialize(doc *render.Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(doc.Title)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}
	headStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E8E8E8"}, Pattern: 1},
		Border: cellBorder(),
		Alignment: &excelize.Alignment{
			Horizontal: "center", Vertical: "center", WrapText: true,
		},
	})
	if err != nil {
		return nil, err
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Border:    cellBorder(),
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return nil, err
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	width := widestTable(doc)
	lastCol, _ := excelize.ColumnNumberToName(width)
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "A", "A", 8); err != nil {
		return nil, err
	}

	row := 1
	if len(doc.Logo) > 0 {
		if err := f.AddPictureFromBytes(sheet, "A1", &excelize.Picture{
			Extension: ".png",
			File:      doc.Logo,
			Format:    &excelize.GraphicOptions{LockAspectRatio: true},
		}); err != nil {
			return nil, fmt.Errorf("letterhead: %w", err)
		}
		row = 5
	}

	line := func(text string, style int) error {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		end, _ := excelize.CoordinatesToCellName(width, row)
		if err := f.SetCellValue(sheet, cell, text); err != nil {
			return err
		}
		if width > 1 {
			if err := f.MergeCell(sheet, cell, end); err != nil {
				return err
			}
		}
		if style != 0 {
			if err := f.SetCellStyle(sheet, cell, end, style); err != nil {
				return err
			}
		}
		row++
		return nil
	}

	if err := line(doc.Title, titleStyle); err != nil {
		return nil, err
	}
	if doc.Subtitle != "" {
		if err := line(doc.Subtitle, boldStyle); err != nil {
			return nil, err
		}
	}
	for _, h := range doc.Header {
		if err := line(h, 0); err != nil {
			return nil, err
		}
	}
	row++

	for _, section := range doc.Sections {
		if section.Heading != "" {
			if err := line(section.Heading, boldStyle); err != nil {
				return nil, err
			}
		}
		for _, p := range section.Paragraphs {
			if err := line(p, 0); err != nil {
				return nil, err
			}
		}
		for _, table := range section.Tables {
			if err := writeTable(f, sheet, row, table, headStyle, cellStyle); err != nil {
				return nil, err
			}
			row += len(table.Rows) + 2
		}
	}

	for _, footer := range doc.Footer {
		if err := line(footer, 0); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, sheet string, row int, table *render.Table, headStyle, cellStyle int) error {
	if len(table.Columns) == 0 {
		return nil
	}
	header := make([]interface{}, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	start, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, start, &header); err != nil {
		return err
	}
	end, _ := excelize.CoordinatesToCellName(len(table.Columns), row)
	if err := f.SetCellStyle(sheet, start, end, headStyle); err != nil {
		return err
	}

	for i, r := range table.Rows {
		values := make([]interface{}, len(r))
		for j, v := range r {
			values[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, row+1+i)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	if len(table.Rows) > 0 {
		first, _ := excelize.CoordinatesToCellName(1, row+1)
		last, _ := excelize.CoordinatesToCellName(len(table.Columns), row+len(table.Rows))
		if err := f.SetCellStyle(sheet, first, last, cellStyle); err != nil {
			return err
		}
	}
	return nil
}

func cellBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "444444", Style: 1},
		{Type: "top", Color: "444444", Style: 1},
		{Type: "right", Color: "444444", Style: 1},
		{Type: "bottom", Color: "444444", Style: 1},
	}
}
