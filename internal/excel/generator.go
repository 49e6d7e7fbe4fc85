package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/qurylys/procurement/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the contract-vs-actual variance report for an approved
// material request. Positive variance means the actual quantity exceeded the
// contracted one.
func (g *Generator) Generate(request *model.MaterialRequest) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Variance"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Material request")
	set("B1", request.ID.String())
	set("A2", "Project")
	set("B2", request.ProjectID.String())
	set("A3", "Contractor")
	set("B3", request.ContractorID.String())
	set("A4", "Status")
	set("B4", string(request.Status))

	headerRow := 6
	headers := []string{"#", "Code", "Name", "Unit", "Unit price", "Contract qty", "Actual qty", "Variance %"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return nil, err
		}
		set(cell, header)
	}

	for i, material := range request.Materials {
		row := headerRow + 1 + i
		set(fmt.Sprintf("A%d", row), material.Position)
		set(fmt.Sprintf("B%d", row), material.Code)
		set(fmt.Sprintf("C%d", row), material.Name)
		set(fmt.Sprintf("D%d", row), material.Unit)
		set(fmt.Sprintf("E%d", row), material.UnitPrice)
		set(fmt.Sprintf("F%d", row), material.ContractQuantity)
		if material.ActualQuantity != nil {
			set(fmt.Sprintf("G%d", row), *material.ActualQuantity)
		} else {
			set(fmt.Sprintf("G%d", row), "—")
		}
		if material.VariancePercent != nil {
			set(fmt.Sprintf("H%d", row), fmt.Sprintf("%+.2f", *material.VariancePercent))
		} else {
			set(fmt.Sprintf("H%d", row), "n/a")
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
