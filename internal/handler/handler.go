package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eventqr/internal/attendance"
	"eventqr/internal/auth"
	"eventqr/internal/cloudinary"
	"eventqr/internal/config"
	"eventqr/internal/event"
	"eventqr/internal/queue"
	"eventqr/internal/store"
	"eventqr/internal/student"
)

// Handler carries the portal's dependencies into gin handlers.
type Handler struct {
	cfg      config.App
	events   *event.Repository
	students *student.Repository
	att      *attendance.Repository
	svc      *attendance.Service
	staff    *auth.Repository
	redis    *store.Redis
	q        queue.Queue
	cloud    *cloudinary.Client // nil if Cloudinary not configured
	now      func() time.Time
}

// New creates a handler.
func New(cfg config.App, events *event.Repository, students *student.Repository,
	att *attendance.Repository, svc *attendance.Service, staff *auth.Repository,
	redis *store.Redis, q queue.Queue, cloud *cloudinary.Client) *Handler {
	return &Handler{
		cfg:      cfg,
		events:   events,
		students: students,
		att:      att,
		svc:      svc,
		staff:    staff,
		redis:    redis,
		q:        q,
		cloud:    cloud,
		now:      time.Now,
	}
}

// eventView is an event plus its derived status, the shape every listing and
// scan response uses.
type eventView struct {
	event.Event
	Status   event.Status `json:"status"`
	TimeInfo string       `json:"time_info"`
}

func (h *Handler) viewOf(ev event.Event) eventView {
	cls := event.Classify(ev, h.now())
	return eventView{Event: ev, Status: cls.Status, TimeInfo: cls.TimeInfo}
}

// Dashboard returns portal-wide totals: events bucketed by status, the
// student count, and today's registrations and check-ins.
func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	events, err := h.events.List(ctx, nil, nil, 500, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	studentCount, err := h.students.Count(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := h.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	registrationsToday, err := h.att.RegistrationsSince(ctx, midnight)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	checkInsToday, err := h.att.CheckInsSince(ctx, midnight)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dashboardPayload(events, now, studentCount, registrationsToday, checkInsToday))
}

func dashboardPayload(events []event.Event, now time.Time, students, registrationsToday, checkInsToday int) gin.H {
	byStatus := map[event.Status]int{}
	ongoing := []eventView{}
	for _, ev := range events {
		cls := event.Classify(ev, now)
		byStatus[cls.Status]++
		if cls.Status == event.StatusOngoing {
			ongoing = append(ongoing, eventView{Event: ev, Status: cls.Status, TimeInfo: cls.TimeInfo})
		}
	}
	return gin.H{
		"events": gin.H{
			"total":    len(events),
			"upcoming": byStatus[event.StatusUpcoming],
			"ongoing":  byStatus[event.StatusOngoing],
			"past":     byStatus[event.StatusPast],
		},
		"ongoing_events":      ongoing,
		"students":            students,
		"registrations_today": registrationsToday,
		"check_ins_today":     checkInsToday,
	}
}
