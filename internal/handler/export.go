package handler

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"flowtasks/internal/middleware"
	"flowtasks/internal/models"
	"flowtasks/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{"Title", "Description", "Priority", "Completed", "Due date", "Created at"}

func exportRow(t *models.Task) []string {
	due := ""
	if t.DueDate != nil {
		due = t.DueDate.Format("2006-01-02")
	}
	return []string{
		t.Title,
		t.Description,
		t.Priority,
		strconv.FormatBool(t.Completed),
		due,
		t.CreatedAt.Format(time.RFC3339),
	}
}

func (h *TaskHandler) exportTasks(c *gin.Context) ([]models.Task, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Not authorized")
		return nil, false
	}

	var tasks []models.Task
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		slog.Error("export tasks", "user_id", user.ID, "err", err)
		util.Error(c, http.StatusInternalServerError, "Server Error")
		return nil, false
	}
	return tasks, true
}

// ExportCSV 导出任务为 CSV
func (h *TaskHandler) ExportCSV(c *gin.Context) {
	tasks, ok := h.exportTasks(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"tasks_%s.csv\"",
		time.Now().Format("20060102")))

	// UTF-8 BOM so spreadsheet apps detect the encoding
	_, _ = c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write(exportHeaders)
	for i := range tasks {
		_ = writer.Write(exportRow(&tasks[i]))
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Error("write csv", "err", err)
	}
}

// ExportXLSX 导出任务为 XLSX
func (h *TaskHandler) ExportXLSX(c *gin.Context) {
	tasks, ok := h.exportTasks(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Tasks"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		util.Error(c, http.StatusInternalServerError, "Export failed")
		return
	}

	rows := make([][]string, 0, len(tasks)+1)
	rows = append(rows, exportHeaders)
	for i := range tasks {
		rows = append(rows, exportRow(&tasks[i]))
	}
	for r, row := range rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+1)
			if err != nil {
				util.Error(c, http.StatusInternalServerError, "Export failed")
				return
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				util.Error(c, http.StatusInternalServerError, "Export failed")
				return
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 30)
	_ = f.SetColWidth(sheet, "B", "B", 40)
	_ = f.SetColWidth(sheet, "C", "E", 12)
	_ = f.SetColWidth(sheet, "F", "F", 24)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"tasks_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		slog.Error("write xlsx", "err", err)
	}
}
