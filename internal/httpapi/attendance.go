package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"geoattend/internal/attendance"
	"geoattend/internal/geo"
)

type attemptRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type recordResponse struct {
	*attendance.Record
	WorkDate string `json:"work_date"`
}

func newRecordResponse(rec *attendance.Record) *recordResponse {
	if rec == nil {
		return nil
	}
	return &recordResponse{Record: rec, WorkDate: rec.WorkDate.Format(attendance.DateLayout)}
}

type attemptFunc func(*gin.Context, attendance.AttemptInput) (attendance.Decision, error)

func (h *handler) checkIn(c *gin.Context) {
	h.attempt(c, http.StatusCreated, func(c *gin.Context, in attendance.AttemptInput) (attendance.Decision, error) {
		return h.Attendance.CheckIn(c.Request.Context(), in)
	})
}

func (h *handler) checkOut(c *gin.Context) {
	h.attempt(c, http.StatusOK, func(c *gin.Context, in attendance.AttemptInput) (attendance.Decision, error) {
		return h.Attendance.CheckOut(c.Request.Context(), in)
	})
}

func (h *handler) attempt(c *gin.Context, acceptedStatus int, fn attemptFunc) {
	var req attemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "latitude and longitude are required")
		return
	}

	decision, err := fn(c, attendance.AttemptInput{
		UserID:   currentUserID(c),
		Location: geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude},
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if !decision.Accepted {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"reason":  decision.Reason,
			"message": decision.Reason.Message(),
		})
		return
	}
	c.JSON(acceptedStatus, newRecordResponse(decision.Record))
}

func (h *handler) today(c *gin.Context) {
	rec, err := h.Attendance.Today(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": newRecordResponse(rec)})
}

func (h *handler) history(c *gin.Context) {
	h.writeHistory(c, currentUserID(c))
}

func (h *handler) userHistory(c *gin.Context) {
	h.writeHistory(c, c.Param("id"))
}

func (h *handler) writeHistory(c *gin.Context, userID string) {
	pageSize, ok := queryInt(c, "page_size")
	if !ok {
		return
	}
	res, err := h.Attendance.History(c.Request.Context(), attendance.HistoryInput{
		UserID:    userID,
		PageSize:  pageSize,
		PageToken: c.Query("page_token"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	records := make([]*recordResponse, 0, len(res.Records))
	for _, rec := range res.Records {
		records = append(records, newRecordResponse(rec))
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "next_page_token": res.NextPageToken})
}

// queryInt parses an optional integer query parameter, writing a 400 when it
// is malformed.
func queryInt(c *gin.Context, key string) (int, bool) {
	v := c.Query(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		badRequest(c, key+" must be an integer")
		return 0, false
	}
	return n, true
}
