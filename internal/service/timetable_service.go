package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/prasit-p/school-register-api/internal/models"
	"github.com/prasit-p/school-register-api/internal/timeslot"
)

// TimetableCell is one section occurrence inside a display slot.
type TimetableCell struct {
	SectionID   int64  `json:"section_id"`
	SubjectCode string `json:"subject_code"`
	SubjectName string `json:"subject_name"`
	TeacherName string `json:"teacher_name"`
	Room        string `json:"room"`
	TimeRange   string `json:"time_range"`
}

// TimetableDay groups a day's cells by display slot. Slots maps the fixed
// slot label ("08:00-08:50") to the sections meeting during it.
type TimetableDay struct {
	Day   string                     `json:"day"`
	Slots map[string][]TimetableCell `json:"slots"`
}

// Timetable is the weekly grid of a student's enrolled sections.
type Timetable struct {
	Days []TimetableDay         `json:"days"`
	Term *models.TermResolution `json:"term,omitempty"`
}

// TimetableService projects enrolled sections onto the fixed weekly grid.
type TimetableService struct {
	registrations *RegistrationService
	logger        *zap.Logger
}

// NewTimetableService constructs a TimetableService.
func NewTimetableService(registrations *RegistrationService, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{registrations: registrations, logger: logger}
}

// Build renders the student's enrolled sections as a conflict-visible
// weekly grid. Meeting times are parsed from their stored free text; a
// section spanning several display slots appears under each of them, and
// entries that fail to parse are skipped rather than failing the grid.
func (s *TimetableService) Build(ctx context.Context, studentID int64, year string, semester int) (*Timetable, error) {
	listed, err := s.registrations.List(ctx, studentID, year, semester, models.ListModeRegistered)
	if err != nil {
		return nil, err
	}

	slotRanges := make([]timeslot.Range, len(timeslot.DisplaySlots))
	for i, label := range timeslot.DisplaySlots {
		slotRanges[i] = *timeslot.ParseRange(label)
	}

	byDay := make(map[string]map[string][]TimetableCell)
	for _, view := range listed.Registrations {
		for _, entry := range view.Schedules {
			meeting := timeslot.ParseRange(entry.TimeRange)
			if meeting == nil {
				s.logger.Debug("unparseable meeting time skipped",
					zap.Int64("section_id", view.SectionID), zap.String("time_range", entry.TimeRange))
				continue
			}
			day := timeslot.NormalizeDay(entry.DayOfWeek)
			for i, slot := range slotRanges {
				if !timeslot.Overlaps(*meeting, slot) {
					continue
				}
				if byDay[day] == nil {
					byDay[day] = make(map[string][]TimetableCell)
				}
				label := timeslot.DisplaySlots[i]
				byDay[day][label] = append(byDay[day][label], TimetableCell{
					SectionID:   view.SectionID,
					SubjectCode: view.SubjectCode,
					SubjectName: view.SubjectName,
					TeacherName: view.TeacherName,
					Room:        entry.Room,
					TimeRange:   entry.TimeRange,
				})
			}
		}
	}

	days := make([]TimetableDay, 0, len(byDay))
	for day, slots := range byDay {
		days = append(days, TimetableDay{Day: day, Slots: slots})
	}
	sort.Slice(days, func(i, j int) bool {
		return timeslot.DayIndex(days[i].Day) < timeslot.DayIndex(days[j].Day)
	})

	return &Timetable{Days: days, Term: listed.Term}, nil
}
