package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventqr/internal/attendance"
	"eventqr/internal/auth"
	"eventqr/internal/queue"
)

type scanRequest struct {
	QRCode  string `json:"qr_code" binding:"required"`
	EventID int64  `json:"event_id" binding:"required"`
	Mode    string `json:"mode" binding:"required,oneof=check_in check_out"`
	Status  string `json:"status"` // present or late, chosen by the staff UI
}

// Scan resolves a decoded QR code against an event: check-in or check-out
// depending on mode. Domain failures come back as 200 with success=false and
// the matching flag so the scanner UI can react without parsing messages.
func (h *Handler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	now := h.now()

	st, err := h.students.GetByQR(ctx, req.QRCode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	if st == nil {
		scanOutcomes.WithLabelValues("student_not_found").Inc()
		c.JSON(http.StatusOK, gin.H{
			"success":           false,
			"message":           "Student not found for scanned code",
			"student_not_found": true,
		})
		return
	}

	// Continuous scanners re-read the same badge several times a second;
	// identical scans inside the cooldown window are dropped before any write.
	if !h.redis.AcquireScanSlot(ctx, st.Code, req.EventID, req.Mode, h.cfg.ScanCooldown) {
		scanOutcomes.WithLabelValues("cooldown").Inc()
		c.JSON(http.StatusOK, gin.H{
			"success":   false,
			"message":   "Duplicate scan ignored",
			"duplicate": true,
		})
		return
	}

	staff := auth.StaffID(c)
	var result attendance.Result
	if req.Mode == "check_out" {
		result, err = h.svc.CheckOut(ctx, st.Code, req.EventID, staff, now)
	} else {
		result, err = h.svc.CheckIn(ctx, st.Code, req.EventID, attendance.Status(req.Status), staff, now)
	}
	if err != nil {
		// A failed scan must not burn the cooldown window: the staff fixes the
		// problem (registers the student, switches mode) and rescans right away.
		h.redis.ReleaseScanSlot(ctx, st.Code, req.EventID, req.Mode)
		h.scanFailure(c, st.Code, err)
		return
	}

	scanOutcomes.WithLabelValues(string(result.Outcome)).Inc()
	h.publishAudit(ctx, st.Code, req.EventID, staff, result.Outcome)

	resp := gin.H{
		"success": true,
		"message": scanMessage(st.FirstName, result),
		"outcome": result.Outcome,
		"student": st,
		"event":   h.viewOf(result.Event),
	}
	if result.Record != nil {
		resp["attendance"] = result.Record
	}
	if result.CanCheckout {
		resp["can_checkout"] = true
	}
	if result.LeftEarly {
		resp["left_early"] = true
	}
	c.JSON(http.StatusOK, resp)
}

func scanMessage(firstName string, result attendance.Result) string {
	switch result.Outcome {
	case attendance.OutcomeCheckedIn:
		return firstName + " checked in"
	case attendance.OutcomeAlreadyCheckedIn:
		return firstName + " is already checked in"
	case attendance.OutcomeCheckedOut:
		if result.LeftEarly {
			return firstName + " checked out early"
		}
		return firstName + " checked out"
	case attendance.OutcomeAlreadyCheckedOut:
		return firstName + " is already checked out"
	}
	return "ok"
}

func (h *Handler) scanFailure(c *gin.Context, studentCode string, err error) {
	resp := gin.H{"success": false, "message": err.Error()}

	switch {
	case errors.Is(err, attendance.ErrEventNotFound):
		scanOutcomes.WithLabelValues("event_not_found").Inc()
		c.JSON(http.StatusNotFound, resp)
		return
	case errors.Is(err, attendance.ErrEventNotStarted):
		scanOutcomes.WithLabelValues("event_not_started").Inc()
		resp["event_not_started"] = true
	case errors.Is(err, attendance.ErrEventEnded):
		scanOutcomes.WithLabelValues("event_ended").Inc()
		resp["event_ended"] = true
	case errors.Is(err, attendance.ErrNotRegistered):
		scanOutcomes.WithLabelValues("not_registered").Inc()
		resp["needs_registration"] = true
		if events, lerr := h.svc.RegisteredEvents(c.Request.Context(), studentCode); lerr == nil {
			views := make([]eventView, 0, len(events))
			for _, ev := range events {
				views = append(views, h.viewOf(ev))
			}
			resp["registered_events"] = views
		}
	case errors.Is(err, attendance.ErrNotCheckedIn):
		scanOutcomes.WithLabelValues("not_checked_in").Inc()
		resp["not_checked_in"] = true
	case errors.Is(err, attendance.ErrBadStatus):
		c.JSON(http.StatusBadRequest, resp)
		return
	default:
		scanOutcomes.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) publishAudit(ctx context.Context, studentCode string, eventID int64, staff string, outcome attendance.Outcome) {
	msg, err := queue.Encode("scan_audit", attendance.AuditRecord{
		Staff:       staff,
		Action:      string(outcome),
		StudentCode: studentCode,
		EventID:     eventID,
		OccurredAt:  h.now().UTC(),
	})
	if err != nil {
		log.Printf("audit encode failed: %v", err)
		return
	}
	// Audit is best-effort; a down queue never fails the scan.
	if err := h.q.Publish(ctx, msg); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}
