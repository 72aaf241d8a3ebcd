package statement

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheet = "Estado"

type ExcelRenderer struct{}

func (ExcelRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (ExcelRenderer) Render(st *Statement, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return fmt.Errorf("creating title style: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	moneyFmt := "#,##0"

	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return fmt.Errorf("creating money style: %w", err)
	}

	f.SetCellValue(sheet, "A1", "Estado de cuenta: "+st.Client.Name)
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)
	f.SetCellValue(sheet, "A2", "Generado: "+st.GeneratedAt.Format("2006-01-02 15:04"))

	const headerRow = 4

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	row := headerRow + 1

	for _, r := range st.Rows {
		values := []any{
			r.Date.Format("2006-01-02"),
			typeLabel(r.Type, r.Campaign),
			r.Products,
			r.Total.InexactFloat64(),
			r.Payments.InexactFloat64(),
			r.Balance.InexactFloat64(),
			status(r),
		}

		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}

		row++
	}

	totalRow := row + 1
	f.SetCellValue(sheet, fmt.Sprintf("C%d", totalRow), "Totales")
	f.SetCellValue(sheet, fmt.Sprintf("D%d", totalRow), st.Totals.Total.InexactFloat64())
	f.SetCellValue(sheet, fmt.Sprintf("E%d", totalRow), st.Totals.Payments.InexactFloat64())
	f.SetCellValue(sheet, fmt.Sprintf("F%d", totalRow), st.Totals.Outstanding.InexactFloat64())

	f.SetCellStyle(sheet, fmt.Sprintf("D%d", headerRow+1), fmt.Sprintf("F%d", totalRow), moneyStyle)
	f.SetColWidth(sheet, "A", "B", 12)
	f.SetColWidth(sheet, "C", "C", 40)
	f.SetColWidth(sheet, "D", "G", 14)

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
		ActivePane:  "bottomLeft",
	})

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing excel: %w", err)
	}

	return nil
}
