package handlers

import (
	"fmt"
	"net/http"
	"time"

	"clinicfront/services/clinicapi"
	"clinicfront/services/queue"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReportsHandler lists served entries and exports them as CSV.
type ReportsHandler struct {
	base
	queue *queue.Service
}

func NewReportsHandler(b base, svc *queue.Service) *ReportsHandler {
	return &ReportsHandler{base: b, queue: svc}
}

func filterFromQuery(c *gin.Context) queue.ReportFilter {
	return queue.ReportFilter{Preset: c.Query("date"), From: c.Query("from"), To: c.Query("to")}
}

// Page lists served entries. A bad range falls back to the preset and is
// reported inline.
func (h *ReportsHandler) Page(c *gin.Context) {
	filter, filterErr := filterFromQuery(c).Normalize()
	rows, err := h.queue.Reports(c.Request.Context(), filter)
	data := gin.H{
		"Filter":      filter,
		"Presets":     queue.Presets,
		"Query":       c.Query("q"),
		"ExportQuery": filter.Values().Encode(),
		"Total":       len(rows),
	}
	switch {
	case err != nil:
		getLogger(c).Warn("queue reports failed", zap.Error(err))
		data["Error"] = "Could not load reports: " + clinicapi.ErrorMessage(err)
	case filterErr != nil:
		data["Error"] = filterErr.Error()
	}
	data["Rows"] = queue.Search(rows, c.Query("q"))
	c.HTML(http.StatusOK, "queue_reports", h.view(c, "Queue reports", data))
}

// Export re-fetches with the same filter and streams every loaded row; the
// search box only narrows the on-screen table.
func (h *ReportsHandler) Export(c *gin.Context) {
	filter, _ := filterFromQuery(c).Normalize()
	rows, err := h.queue.Reports(c.Request.Context(), filter)
	if err != nil {
		getLogger(c).Warn("queue report export failed", zap.Error(err))
		h.flash(c, "Could not export: "+clinicapi.ErrorMessage(err))
		seeOther(c, "/admin-panel/queue-reports?"+filter.Values().Encode())
		return
	}

	name := "queue-report-" + filter.Preset
	if filter.HasRange() {
		name = fmt.Sprintf("queue-report-%s_to_%s", filter.From, filter.To)
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, name))
	c.Status(http.StatusOK)
	if err := queue.WriteCSV(c.Writer, rows, time.Local); err != nil {
		getLogger(c).Error("write csv", zap.Error(err))
	}
}
