package exports

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sunyuchen88/guomaojiance/internal/records"
	"github.com/sunyuchen88/guomaojiance/pkg/db/models"
	pkgerrors "github.com/sunyuchen88/guomaojiance/pkg/errors"
)

// maxExportRows caps how many spreadsheet rows one export may produce.
const maxExportRows = 10000

const sheetName = "检测结果"

var headers = []string{
	"样品名称",
	"公司/个体",
	"检测项目",
	"检验结果",
	"该项结果",
	"检测时间",
	"样品编号",
	"检测方法",
}

var columnWidths = []float64{20, 25, 20, 12, 15, 18, 20, 20}

type recordSource interface {
	FindForExport(ctx context.Context, filter records.ExportFilter) ([]models.InspectionRecord, error)
}

// Export is a rendered spreadsheet ready to stream to the client.
type Export struct {
	FileName string
	Content  []byte
}

// Service renders inspection results as an xlsx workbook, one row per
// item with the sample columns repeated; itemless records still get a row.
type Service struct {
	source recordSource
	now    func() time.Time
}

func NewService(source recordSource) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("record source required")
	}
	return &Service{source: source, now: time.Now}, nil
}

type row struct {
	sampleName  string
	company     string
	itemName    string
	checkResult string
	itemResult  string
	checkTime   string
	unionNumber string
	method      string
}

// Generate builds the workbook for the filtered record set.
func (s *Service) Generate(ctx context.Context, filter records.ExportFilter) (*Export, error) {
	recordRows, err := s.source.FindForExport(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load records for export")
	}

	rows := expandRows(recordRows)
	if len(rows) > maxExportRows {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("export would produce %d rows, limit is %d", len(rows), maxExportRows))
	}

	content, err := renderWorkbook(rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render workbook")
	}

	return &Export{
		FileName: fmt.Sprintf("检测结果导出_%s.xlsx", s.now().Format("20060102")),
		Content:  content,
	}, nil
}

func expandRows(recordRows []models.InspectionRecord) []row {
	rows := make([]row, 0, len(recordRows))
	for _, record := range recordRows {
		base := row{
			sampleName:  deref(record.GoodsName),
			company:     deref(record.SubmissionCompany),
			checkResult: deref(record.OverallResult),
			checkTime:   formatTime(record.CheckStartTime),
			unionNumber: record.UnionNumber,
		}
		if len(record.Items) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, item := range record.Items {
			entry := base
			entry.itemName = item.Name
			entry.itemResult = deref(item.Judgment)
			entry.method = deref(item.Method)
			rows = append(rows, entry)
		}
	}
	return rows
}

func renderWorkbook(rows []row) ([]byte, error) {
	book := excelize.NewFile()
	defer book.Close()

	index, err := book.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	book.SetActiveSheet(index)
	if err := book.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := book.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, err
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := book.SetCellValue(sheetName, cell, header); err != nil {
			return nil, err
		}
		if err := book.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, err
		}

		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := book.SetColWidth(sheetName, name, name, columnWidths[col]); err != nil {
			return nil, err
		}
	}

	for i, entry := range rows {
		values := []string{
			entry.sampleName,
			entry.company,
			entry.itemName,
			entry.checkResult,
			entry.itemResult,
			entry.checkTime,
			entry.unionNumber,
			entry.method,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := book.SetCellValue(sheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format("2006-01-02 15:04")
}
