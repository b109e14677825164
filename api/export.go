package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"

	"carteira/config"
	"carteira/middleware"
	"carteira/models"
	"carteira/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler 导出处理器
type ExportHandler struct {
	base
}

// NewExportHandler 创建导出处理器
func NewExportHandler(cfg *config.Config, db *gorm.DB) *ExportHandler {
	return &ExportHandler{base: base{db: db, server: cfg.Server}}
}

// exportRange 导出的到期日范围（含首尾）
type exportRange struct {
	Start models.Date
	End   models.Date
}

func (r exportRange) String() string {
	return r.Start.String() + "_" + r.End.String()
}

// load 解析 start_date/end_date 并查询范围内的支出
func (h *ExportHandler) load(c *gin.Context) (exportRange, []models.Expense, bool) {
	var r exportRange
	if c.Query("start_date") == "" || c.Query("end_date") == "" {
		BadRequest(c, "请提供开始日期和结束日期")
		return r, nil, false
	}
	var err error
	if r.Start, err = parseDate("start_date", c.Query("start_date")); err != nil {
		h.fail(c, err, "")
		return r, nil, false
	}
	if r.End, err = parseDate("end_date", c.Query("end_date")); err != nil {
		h.fail(c, err, "")
		return r, nil, false
	}
	if r.End.Before(r.Start) {
		h.fail(c, service.Invalid("end_date", "结束日期不能早于开始日期"), "")
		return r, nil, false
	}

	var expenses []models.Expense
	if err := h.db.WithContext(c.Request.Context()).
		Where("owner_id = ? AND due_date >= ? AND due_date <= ?", middleware.GetCurrentUserID(c), r.Start, r.End).
		Order("due_date ASC, id ASC").
		Find(&expenses).Error; err != nil {
		h.fail(c, service.StoreErr("查询支出", err), "查询数据失败")
		return r, nil, false
	}
	return r, expenses, true
}

func paymentDateText(e models.Expense) string {
	if !e.IsPaid() {
		return ""
	}
	return e.PaymentDate.String()
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

var exportHeaders = []string{"ID", "名称", "金额", "类别", "到期日", "支付日期", "固定", "必要"}

func exportRow(e models.Expense) []string {
	return []string{
		fmt.Sprintf("%d", e.ID),
		e.Name,
		e.Amount.StringFixed(2),
		e.Category,
		e.DueDate.String(),
		paymentDateText(e),
		yesNo(e.IsFixed),
		yesNo(e.IsEssential),
	}
}

// ExportCSV 导出支出为 CSV
// @Summary 导出支出为 CSV
// @Description 按到期日范围导出支出
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2024-01-01)"
// @Param end_date query string true "结束日期 (2024-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	r, expenses, ok := h.load(c)
	if !ok {
		return
	}

	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")
	writer := csv.NewWriter(buf)
	if err := writer.Write(exportHeaders); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}
	for _, e := range expenses {
		if err := writer.Write(exportRow(e)); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=despesas_%s.csv", r))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportJSON 导出支出为 JSON
// @Summary 导出支出为 JSON
// @Tags 导出
// @Produce json
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2024-01-01)"
// @Param end_date query string true "结束日期 (2024-12-31)"
// @Success 200 {object} Response "导出成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/export/json [get]
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	r, expenses, ok := h.load(c)
	if !ok {
		return
	}

	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}

	Success(c, gin.H{
		"start_date":   r.Start,
		"end_date":     r.End,
		"total_count":  len(expenses),
		"total_amount": total.Round(2),
		"expenses":     expenses,
	})
}

// ExportExcel 导出支出为 Excel
// @Summary 导出支出为 Excel
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2024-01-01)"
// @Param end_date query string true "结束日期 (2024-12-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	r, expenses, ok := h.load(c)
	if !ok {
		return
	}

	f, err := buildExpenseWorkbook(expenses)
	if err != nil {
		h.fail(c, err, "生成 Excel 失败")
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=despesas_%s.xlsx", r))
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}
}

const expenseSheet = "支出"

func cellBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
}

// buildExpenseWorkbook 生成带表头、明细和合计行的工作簿
func buildExpenseWorkbook(expenses []models.Expense) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", expenseSheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder(),
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder(),
	})
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder(),
	})

	f.SetColWidth(expenseSheet, "A", "A", 8)
	f.SetColWidth(expenseSheet, "B", "B", 30)
	f.SetColWidth(expenseSheet, "C", "D", 14)
	f.SetColWidth(expenseSheet, "E", "F", 14)
	f.SetColWidth(expenseSheet, "G", "H", 8)

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(expenseSheet, cell, header)
		f.SetCellStyle(expenseSheet, cell, cell, headerStyle)
	}

	total := decimal.Zero
	for i, e := range expenses {
		row := i + 2
		amount, _ := e.Amount.Float64()
		f.SetCellValue(expenseSheet, fmt.Sprintf("A%d", row), e.ID)
		f.SetCellValue(expenseSheet, fmt.Sprintf("B%d", row), e.Name)
		f.SetCellValue(expenseSheet, fmt.Sprintf("C%d", row), amount)
		f.SetCellValue(expenseSheet, fmt.Sprintf("D%d", row), e.Category)
		f.SetCellValue(expenseSheet, fmt.Sprintf("E%d", row), e.DueDate.String())
		f.SetCellValue(expenseSheet, fmt.Sprintf("F%d", row), paymentDateText(e))
		f.SetCellValue(expenseSheet, fmt.Sprintf("G%d", row), yesNo(e.IsFixed))
		f.SetCellValue(expenseSheet, fmt.Sprintf("H%d", row), yesNo(e.IsEssential))
		f.SetCellStyle(expenseSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("H%d", row), dataStyle)
		total = total.Add(e.Amount)
	}

	summaryRow := len(expenses) + 2
	totalValue, _ := total.Round(2).Float64()
	f.SetCellValue(expenseSheet, fmt.Sprintf("A%d", summaryRow), "合计")
	f.MergeCell(expenseSheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("B%d", summaryRow))
	f.SetCellValue(expenseSheet, fmt.Sprintf("C%d", summaryRow), totalValue)
	f.SetCellValue(expenseSheet, fmt.Sprintf("D%d", summaryRow), fmt.Sprintf("共 %d 条记录", len(expenses)))
	f.MergeCell(expenseSheet, fmt.Sprintf("D%d", summaryRow), fmt.Sprintf("H%d", summaryRow))
	f.SetCellStyle(expenseSheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("H%d", summaryRow), summaryStyle)

	return f, nil
}
