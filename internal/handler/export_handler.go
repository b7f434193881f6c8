package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prasit-p/school-register-api/internal/service"
	appErrors "github.com/prasit-p/school-register-api/pkg/errors"
	"github.com/prasit-p/school-register-api/pkg/response"
)

// ExportHandler streams rendered registration documents.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Registrations godoc
// @Summary Download registrations as CSV or PDF
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param year query string false "Academic year, CE or BE"
// @Param semester query int false "Semester number"
// @Param student_id query int false "Target student (staff only)"
// @Success 200 {file} file
// @Router /export/registrations [get]
func (h *ExportHandler) Registrations(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	year, semester := termQuery(c)
	studentID := targetStudentID(c, claims)

	var (
		file *service.ExportFile
		err  error
	)
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		file, err = h.exports.RegistrationsCSV(c.Request.Context(), studentID, year, semester)
	case "pdf":
		file, err = h.exports.RegistrationsPDF(c.Request.Context(), studentID, year, semester)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

// Timetable godoc
// @Summary Download the weekly timetable as PDF
// @Tags Exports
// @Produce application/pdf
// @Param year query string false "Academic year, CE or BE"
// @Param semester query int false "Semester number"
// @Param student_id query int false "Target student (staff only)"
// @Success 200 {file} file
// @Router /export/timetable [get]
func (h *ExportHandler) Timetable(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	year, semester := termQuery(c)
	file, err := h.exports.TimetablePDF(c.Request.Context(), targetStudentID(c, claims), year, semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

func serveFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Payload)
}
