package httpapi

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"geoattend/internal/attendance"
	"geoattend/internal/geo"
	"geoattend/internal/report"
	"geoattend/internal/schedule"
	"geoattend/internal/settings"
	"geoattend/internal/user"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *handler) getOffice(c *gin.Context) {
	fence, err := h.Settings.OfficeGeofence(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fence)
}

func (h *handler) putOffice(c *gin.Context) {
	var fence geo.Geofence
	if err := c.ShouldBindJSON(&fence); err != nil {
		badRequest(c, "invalid office settings: "+err.Error())
		return
	}
	saved, err := h.Settings.UpdateOffice(c.Request.Context(), fence)
	if err != nil {
		respondSettingsError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *handler) getSchedule(c *gin.Context) {
	sched, err := h.Settings.AttendanceSchedule(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

func (h *handler) putSchedule(c *gin.Context) {
	var sched schedule.Schedule
	if err := c.ShouldBindJSON(&sched); err != nil {
		badRequest(c, "invalid schedule: "+err.Error())
		return
	}
	saved, err := h.Settings.UpdateSchedule(c.Request.Context(), sched)
	if err != nil {
		respondSettingsError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func respondSettingsError(c *gin.Context, err error) {
	if settings.IsInvalid(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondError(c, err)
}

func (h *handler) createUser(c *gin.Context) {
	var in user.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid user: "+err.Error())
		return
	}
	u, err := h.Users.CreateUser(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *handler) listUsers(c *gin.Context) {
	pageSize, ok := queryInt(c, "page_size")
	if !ok {
		return
	}
	res, err := h.Users.ListUsers(c.Request.Context(), pageSize, c.Query("page_token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) reportRange(c *gin.Context) (report.Range, bool) {
	from := c.Query("from")
	if from == "" {
		from = h.Now().In(h.Location).Format(attendance.DateLayout)
	}
	r, err := report.ParseRange(from, c.Query("to"))
	if err != nil {
		badRequest(c, err.Error())
		return report.Range{}, false
	}
	return r, true
}

func (h *handler) dailyReport(c *gin.Context) {
	r, ok := h.reportRange(c)
	if !ok {
		return
	}
	days, err := h.Reports.DailySummary(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}

func (h *handler) recordsReport(c *gin.Context) {
	r, ok := h.reportRange(c)
	if !ok {
		return
	}
	rows, err := h.Reports.Records(c.Request.Context(), r, c.Query("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if rows == nil {
		rows = []report.Row{}
	}
	c.JSON(http.StatusOK, gin.H{"records": rows})
}

func (h *handler) exportReport(c *gin.Context) {
	r, ok := h.reportRange(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.Reports.ExportXLSX(c.Request.Context(), &buf, r); err != nil {
		respondError(c, err)
		return
	}
	name := "attendance_" + r.From.Format(attendance.DateLayout) + "_" + r.To.Format(attendance.DateLayout) + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *handler) todayTally(c *gin.Context) {
	if h.Tally == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live tally is not available"})
		return
	}
	date := h.Now().In(h.Location).Format(attendance.DateLayout)
	counts, err := h.Tally.Get(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}
