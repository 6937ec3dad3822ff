package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/andresuchdata/autopo-py/planner-go/internal/export"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/eoq"
	"github.com/andresuchdata/autopo-py/planner-go/internal/service"
	"github.com/andresuchdata/autopo-py/planner-go/internal/session"
	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	sessions *session.Store
	planner  *service.PlannerService
}

func NewPlanHandler(sessions *session.Store, planner *service.PlannerService) *PlanHandler {
	return &PlanHandler{sessions: sessions, planner: planner}
}

type exportQuery struct {
	Format     string `form:"format"`
	Table      string `form:"table"`
	Indonesian bool   `form:"indonesian"`
	Decimals   int    `form:"decimals"`
}

// plan runs the planner over the session's tables using the query string as PlanParams.
func (h *PlanHandler) plan(c *gin.Context) (*service.Result, bool) {
	var params service.PlanParams
	if err := c.ShouldBindQuery(&params); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid query parameters")
		return nil, false
	}
	if _, err := h.planner.Resolve(params); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return nil, false
	}

	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		sessionError(c, err)
		return nil, false
	}

	res, err := h.planner.Plan(c.Request.Context(), s.Tables, params)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return res, true
}

// GetPlan returns the full plan as JSON
func (h *PlanHandler) GetPlan(c *gin.Context) {
	res, ok := h.plan(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

// Export renders the plan as a multi-sheet workbook or a single CSV table.
func (h *PlanHandler) Export(c *gin.Context) {
	var q exportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid query parameters")
		return
	}
	if q.Format == "" {
		q.Format = "xlsx"
	}
	if q.Format != "xlsx" && q.Format != "csv" {
		errorResponse(c, http.StatusBadRequest, "format must be csv or xlsx")
		return
	}

	res, ok := h.plan(c)
	if !ok {
		return
	}
	sheets := export.FromResult(res, h.planner.Config())
	opts := export.Options{IndonesianNumbers: q.Indonesian, Decimals: q.Decimals}
	var buf bytes.Buffer

	if q.Format == "csv" {
		if q.Table == "" {
			q.Table = export.TableProjection
		}
		sheet, err := export.Select(sheets, q.Table)
		if err != nil {
			errorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		if err := export.WriteCSV(&buf, sheet, opts); err != nil {
			errorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}
		attachment(c, fmt.Sprintf("%s_%s.csv", res.Params.AsOf, sheet.Name), "text/csv", buf.Bytes())
		return
	}

	if q.Table != "" {
		sheet, err := export.Select(sheets, q.Table)
		if err != nil {
			errorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		sheets = []export.Sheet{sheet}
	}
	if len(sheets) == 0 {
		errorResponse(c, http.StatusNotFound, "plan has no tables to export")
		return
	}
	if err := export.WriteXLSX(&buf, sheets, opts); err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	attachment(c, fmt.Sprintf("%s_plan.xlsx", res.Params.AsOf),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// DynamicEOQ is the single-item calculator. Omitted cost parameters come from
// the planning config.
func (h *PlanHandler) DynamicEOQ(c *gin.Context) {
	var p eoq.DynamicParams
	if err := c.ShouldBindJSON(&p); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.ForecastDemand < 0 || p.DemandStdDev < 0 || p.COGS < 0 {
		errorResponse(c, http.StatusBadRequest, "demand, std dev and cogs must not be negative")
		return
	}
	c.JSON(http.StatusOK, gin.H{"eoq": h.planner.DynamicEOQ(p)})
}
