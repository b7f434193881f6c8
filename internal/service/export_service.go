package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prasit-p/school-register-api/internal/models"
	"github.com/prasit-p/school-register-api/internal/timeslot"
	"github.com/prasit-p/school-register-api/pkg/export"
)

type registrationLister interface {
	List(ctx context.Context, studentID int64, year string, semester int, mode models.ListMode) (*RegistrationListResult, error)
}

type timetableBuilder interface {
	Build(ctx context.Context, studentID int64, year string, semester int) (*Timetable, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	RenderWide(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered document ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders registration lists and timetables as downloadable
// CSV and PDF files.
type ExportService struct {
	registrations registrationLister
	timetables    timetableBuilder
	csv           csvRenderer
	pdf           pdfRenderer
	logger        *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(registrations registrationLister, timetables timetableBuilder, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		registrations: registrations,
		timetables:    timetables,
		csv:           csv,
		pdf:           pdf,
		logger:        logger,
	}
}

// RegistrationsCSV renders the student's enrolled sections as CSV.
func (s *ExportService) RegistrationsCSV(ctx context.Context, studentID int64, year string, semester int) (*ExportFile, error) {
	data, term, err := s.registrationsDataset(ctx, studentID, year, semester)
	if err != nil {
		return nil, err
	}

	payload, err := s.csv.Render(*data)
	if err != nil {
		return nil, err
	}

	return &ExportFile{
		Filename:    exportFilename("registrations", term, "csv"),
		ContentType: "text/csv",
		Payload:     payload,
	}, nil
}

// RegistrationsPDF renders the same list as a portrait PDF table.
func (s *ExportService) RegistrationsPDF(ctx context.Context, studentID int64, year string, semester int) (*ExportFile, error) {
	data, term, err := s.registrationsDataset(ctx, studentID, year, semester)
	if err != nil {
		return nil, err
	}

	title := "Registered Sections"
	if term != nil {
		title = fmt.Sprintf("Registered Sections %s/%d", term.Year, term.Semester)
	}

	payload, err := s.pdf.Render(*data, title)
	if err != nil {
		return nil, err
	}

	return &ExportFile{
		Filename:    exportFilename("registrations", term, "pdf"),
		ContentType: "application/pdf",
		Payload:     payload,
	}, nil
}

func (s *ExportService) registrationsDataset(ctx context.Context, studentID int64, year string, semester int) (*export.Dataset, *models.TermResolution, error) {
	listed, err := s.registrations.List(ctx, studentID, year, semester, models.ListModeRegistered)
	if err != nil {
		return nil, nil, err
	}

	headers := []string{"Subject Code", "Subject Name", "Credit", "Teacher", "Class", "Schedule", "Enrolled At"}
	rows := make([]map[string]string, 0, len(listed.Registrations))
	for _, view := range listed.Registrations {
		rows = append(rows, map[string]string{
			"Subject Code": view.SubjectCode,
			"Subject Name": view.SubjectName,
			"Credit":       fmt.Sprintf("%.1f", view.Credit),
			"Teacher":      view.TeacherName,
			"Class":        view.ClassLevel,
			"Schedule":     formatScheduleList(view.Schedules),
			"Enrolled At":  formatExportTime(view.EnrolledAt),
		})
	}

	return &export.Dataset{Headers: headers, Rows: rows}, listed.Term, nil
}

// TimetablePDF renders the student's weekly timetable grid as a landscape
// PDF, one row per display slot and one column per school day.
func (s *ExportService) TimetablePDF(ctx context.Context, studentID int64, year string, semester int) (*ExportFile, error) {
	grid, err := s.timetables.Build(ctx, studentID, year, semester)
	if err != nil {
		return nil, err
	}

	// Header columns are English day names so the table stays readable with
	// the core PDF fonts; cell content is subject codes and room numbers.
	headers := make([]string, 0, len(timeslot.WeekDays)+1)
	headers = append(headers, "Time")
	for _, day := range timeslot.WeekDays {
		headers = append(headers, timeslot.EnglishDay(day))
	}

	slots := make(map[string]map[string][]TimetableCell, len(grid.Days))
	for _, day := range grid.Days {
		slots[day.Day] = day.Slots
	}

	rows := make([]map[string]string, 0, len(timeslot.DisplaySlots))
	for _, label := range timeslot.DisplaySlots {
		row := map[string]string{"Time": label}
		for _, day := range timeslot.WeekDays {
			row[timeslot.EnglishDay(day)] = formatCellList(slots[day][label])
		}
		rows = append(rows, row)
	}

	title := "Weekly Timetable"
	if grid.Term != nil {
		title = fmt.Sprintf("Weekly Timetable %s/%d", grid.Term.Year, grid.Term.Semester)
	}

	payload, err := s.pdf.RenderWide(export.Dataset{Headers: headers, Rows: rows}, title)
	if err != nil {
		return nil, err
	}

	return &ExportFile{
		Filename:    exportFilename("timetable", grid.Term, "pdf"),
		ContentType: "application/pdf",
		Payload:     payload,
	}, nil
}

func formatScheduleList(entries []models.ScheduleEntry) string {
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		part := strings.TrimSpace(fmt.Sprintf("%s %s", entry.DayOfWeek, entry.TimeRange))
		if entry.Room != "" {
			part = fmt.Sprintf("%s (%s)", part, entry.Room)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "; ")
}

func formatCellList(cells []TimetableCell) string {
	parts := make([]string, 0, len(cells))
	for _, cell := range cells {
		part := cell.SubjectCode
		if cell.Room != "" {
			part = fmt.Sprintf("%s (%s)", part, cell.Room)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " / ")
}

func formatExportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func exportFilename(kind string, term *models.TermResolution, ext string) string {
	termPart := "current"
	if term != nil {
		termPart = fmt.Sprintf("%s_%d", term.Year, term.Semester)
	}
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", kind, termPart, timestamp, ext)
}
