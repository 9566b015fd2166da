package excel

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"paradestate/internal/model"
	"paradestate/internal/taxonomy"
)

// Member 名册成员
type Member struct {
	Platoon string
	Name    string
}

// NewRosterWorkbook 生成名册骨架：AM/PM/NIGHT 正式表 + 指定月份的 AM/PM 日表
//
// 同一排只在首行写 Platoon（与合并单元格读取结果一致）。
func NewRosterWorkbook(members []Member, year int, months ...time.Month) (*excelize.File, error) {
	wb := excelize.NewFile()
	first := true
	newSheet := func(name string) error {
		if first {
			first = false
			return wb.SetSheetName("Sheet1", name)
		}
		_, err := wb.NewSheet(name)
		return err
	}

	for _, slot := range model.OfficialSlots {
		sheet := slot.SheetName()
		if err := newSheet(sheet); err != nil {
			return nil, err
		}
		if err := writeOfficial(wb, sheet, members, taxonomy.DefaultFor(slot)); err != nil {
			return nil, err
		}
	}
	for _, m := range months {
		for _, slot := range []model.SheetSlot{model.SlotAM, model.SlotPM} {
			s := model.InformalSheet{Year: year, Month: m, Slot: slot}
			if err := newSheet(s.Name()); err != nil {
				return nil, err
			}
			if err := writeInformal(wb, s, members); err != nil {
				return nil, err
			}
		}
	}
	wb.SetActiveSheet(0)
	return wb, nil
}

func writeOfficial(wb *excelize.File, sheet string, members []Member, def string) error {
	if err := wb.SetCellValue(sheet, "A1", fmt.Sprintf("Parade State (%s)", sheet)); err != nil {
		return err
	}
	header := []any{model.ColPlatoon, model.ColName, model.ColStatus, model.ColDate, model.ColRemarks, model.ColLocation}
	if err := wb.SetSheetRow(sheet, "A2", &header); err != nil {
		return err
	}
	prev := ""
	for i, m := range members {
		platoon := ""
		if m.Platoon != prev {
			platoon = m.Platoon
			prev = m.Platoon
		}
		row := []any{platoon, m.Name, def}
		cell, err := model.CellName(0, model.DataRowIndex+i)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeInformal(wb *excelize.File, s model.InformalSheet, members []Member) error {
	sheet := s.Name()
	title := fmt.Sprintf("%s %d (%s)", s.Month, s.Year, s.Slot)
	if err := wb.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	header := []any{model.ColName}
	for d := 1; d <= s.LastDay(); d++ {
		header = append(header, strconv.Itoa(d))
	}
	if err := wb.SetSheetRow(sheet, "A2", &header); err != nil {
		return err
	}
	for i, m := range members {
		cell, err := model.CellName(0, model.HeaderRowIndex+1+i)
		if err != nil {
			return err
		}
		if err := wb.SetCellValue(sheet, cell, m.Name); err != nil {
			return err
		}
	}
	return nil
}
