package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"eventqr/internal/attendance"
	"eventqr/internal/auth"
	"eventqr/internal/event"
	"eventqr/internal/report"
)

type eventRequest struct {
	Name      string `json:"name" binding:"required"`
	Date      string `json:"date" binding:"required"` // YYYY-MM-DD
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Location  string `json:"location"`
}

func (r eventRequest) toEvent() (event.Event, error) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return event.Event{}, errors.New("date must be YYYY-MM-DD")
	}
	if err := event.ValidateTimes(r.StartTime, r.EndTime); err != nil {
		return event.Event{}, err
	}
	return event.Event{
		Name:      r.Name,
		Date:      date,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Location:  r.Location,
	}, nil
}

func eventID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return 0, false
	}
	return id, true
}

// ListEvents returns events with their derived status, optionally filtered by
// status and date window.
func (h *Handler) ListEvents(c *gin.Context) {
	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			from = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			to = &t
		}
	}
	limit, offset := 50, 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	// Status is derived from now, so it cannot be pushed into SQL. With a
	// status filter the window is fetched whole and paged after filtering;
	// paging before would return short pages and skip matches.
	statusFilter := event.Status(c.Query("status"))
	fetchLimit, fetchOffset := limit, offset
	if statusFilter != "" {
		fetchLimit, fetchOffset = maxEventFetch, 0
	}

	events, err := h.events.List(c.Request.Context(), from, to, fetchLimit, fetchOffset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	views := statusViews(events, statusFilter, h.now())
	if statusFilter != "" {
		views = pageViews(views, limit, offset)
	}
	c.JSON(http.StatusOK, gin.H{"events": views})
}

// maxEventFetch bounds the window scanned when a status filter forces
// in-memory paging.
const maxEventFetch = 1000

func statusViews(events []event.Event, status event.Status, now time.Time) []eventView {
	views := make([]eventView, 0, len(events))
	for _, ev := range events {
		cls := event.Classify(ev, now)
		if status != "" && cls.Status != status {
			continue
		}
		views = append(views, eventView{Event: ev, Status: cls.Status, TimeInfo: cls.TimeInfo})
	}
	return views
}

func pageViews(views []eventView, limit, offset int) []eventView {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(views) {
		return []eventView{}
	}
	views = views[offset:]
	if limit > 0 && limit < len(views) {
		views = views[:limit]
	}
	return views
}

// CreateEvent validates and stores a new event.
func (h *Handler) CreateEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev, err := req.toEvent()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.events.Insert(c.Request.Context(), ev)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, h.viewOf(created))
}

// GetEvent returns one event with its derived status.
func (h *Handler) GetEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	ev, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	c.JSON(http.StatusOK, h.viewOf(*ev))
}

// UpdateEvent rewrites an event.
func (h *Handler) UpdateEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev, err := req.toEvent()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev.ID = id
	if err := h.events.Update(c.Request.Context(), ev); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.viewOf(ev))
}

// DeleteEvent removes an event with its registrations and attendance.
func (h *Handler) DeleteEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := h.events.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ListRegistrations returns the signup list for an event.
func (h *Handler) ListRegistrations(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	regs, err := h.att.EventRegistrations(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrations": regs})
}

// RegisterStudent signs a student up for an event.
func (h *Handler) RegisterStudent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var req struct {
		StudentCode string `json:"student_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	st, err := h.students.GetByCode(ctx, req.StudentCode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if st == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}

	reg, err := h.att.Register(ctx, req.StudentCode, id)
	if err != nil {
		if errors.Is(err, attendance.ErrAlreadyRegistered) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, reg)
}

// ListAttendance returns the joined attendance sheet for an event.
func (h *Handler) ListAttendance(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	entries, err := h.att.EventEntries(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	counts, err := h.att.CountByStatus(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": entries, "summary": counts})
}

// MarkAbsentees writes absent rows for an ended event's no-shows.
func (h *Handler) MarkAbsentees(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	count, err := h.svc.MarkAbsentees(c.Request.Context(), id, h.now())
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrEventNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, attendance.ErrEventNotEnded):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked_absent": count, "marked_by": auth.StaffID(c)})
}

// EventReport renders the attendance sheet as csv, xlsx or pdf.
func (h *Handler) EventReport(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	ev, err := h.events.Get(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	entries, err := h.att.EventEntries(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	name := "attendance-" + strconv.FormatInt(id, 10)
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		out, err := report.CSV(*ev, entries)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+name+`.csv"`)
		c.Data(http.StatusOK, "text/csv", out)
	case "xlsx":
		out, err := report.XLSX(*ev, entries)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+name+`.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", out)
	case "pdf":
		out, err := report.PDF(*ev, entries)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+name+`.pdf"`)
		c.Data(http.StatusOK, "application/pdf", out)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv, xlsx or pdf"})
	}
}
