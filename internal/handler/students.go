package handler

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"eventqr/internal/student"
)

type studentRequest struct {
	Code      string `form:"code" json:"code" binding:"required"`
	FirstName string `form:"first_name" json:"first_name" binding:"required"`
	LastName  string `form:"last_name" json:"last_name" binding:"required"`
	Course    string `form:"course" json:"course"`
	YearLevel int    `form:"year_level" json:"year_level"`
}

// ListStudents searches students by free text and course.
func (h *Handler) ListStudents(c *gin.Context) {
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
	students, err := h.students.List(c.Request.Context(), c.Query("q"), c.Query("course"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// CreateStudent stores a new student. Accepts JSON, or multipart form with an
// optional photo that is pushed to Cloudinary when configured.
func (h *Handler) CreateStudent(c *gin.Context) {
	var req studentRequest
	var photoURL string

	if strings.Contains(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if file, header, err := c.Request.FormFile("photo"); err == nil {
			defer file.Close()
			if h.cloud == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "photo storage not configured"})
				return
			}
			result, err := h.cloud.Upload(file, header.Filename)
			if err != nil {
				log.Printf("cloudinary upload failed: %v", err)
				c.JSON(http.StatusBadGateway, gin.H{"error": "photo upload failed"})
				return
			}
			photoURL = result.SecureURL
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := student.ValidateCode(req.Code); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.YearLevel <= 0 {
		req.YearLevel = 1
	}

	created, err := h.students.Insert(c.Request.Context(), student.Student{
		Code:      req.Code,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Course:    req.Course,
		YearLevel: req.YearLevel,
		PhotoURL:  photoURL,
	})
	if err != nil {
		if errors.Is(err, student.ErrExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetStudent returns one student by formatted code.
func (h *Handler) GetStudent(c *gin.Context) {
	st, err := h.students.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if st == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}
	c.JSON(http.StatusOK, st)
}

// UpdateStudent rewrites a student. A changed code cascades through
// registrations and attendance in one transaction.
func (h *Handler) UpdateStudent(c *gin.Context) {
	currentCode := c.Param("code")
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := student.ValidateCode(req.Code); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	existing, err := h.students.GetByCode(ctx, currentCode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}

	updated := *existing
	updated.Code = req.Code
	updated.FirstName = req.FirstName
	updated.LastName = req.LastName
	updated.Course = req.Course
	if req.YearLevel > 0 {
		updated.YearLevel = req.YearLevel
	}
	if existing.QRCode == existing.Code {
		// Badges that encoded the old code follow the rename.
		updated.QRCode = req.Code
	}

	if err := h.students.Update(ctx, currentCode, updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteStudent removes a student with their registrations and attendance.
func (h *Handler) DeleteStudent(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("code")); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("code")})
}

// StudentBadge renders the student's QR badge as a PNG.
func (h *Handler) StudentBadge(c *gin.Context) {
	st, err := h.students.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if st == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}

	size := 256
	if v := c.Query("size"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 1024 {
			size = parsed
		}
	}
	png, err := student.BadgePNG(*st, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
