package service

import (
	"github.com/noah-isme/activitypass-api/internal/models"
	"github.com/noah-isme/activitypass-api/internal/scheduling"
)

// toSchedulingCourse anchors a stored course to its term week 1.
func toSchedulingCourse(cal scheduling.TermCalendar, c models.Course) (scheduling.Course, error) {
	slot, err := cal.Slot(c.TermCode, c.Weekday, models.Ints(c.Periods), models.Ints(c.Weeks))
	if err != nil {
		return scheduling.Course{}, err
	}
	teacher := ""
	if c.TeacherID != nil {
		teacher = *c.TeacherID
	}
	return scheduling.Course{
		ID:        c.ID,
		Code:      c.Code,
		Title:     c.Title,
		Term:      c.TermCode,
		TeacherID: teacher,
		Capacity:  c.Capacity,
		Slot:      slot,
	}, nil
}

func toSchedulingCourses(cal scheduling.TermCalendar, courses []models.Course) ([]scheduling.Course, error) {
	out := make([]scheduling.Course, 0, len(courses))
	for _, c := range courses {
		sc, err := toSchedulingCourse(cal, c)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

func studentAttributes(s *models.StudentProfile) scheduling.StudentAttributes {
	return scheduling.StudentAttributes{College: s.College, Major: s.Major, ProficiencyOrdinal: s.ChineseLevel}
}

func activityRequirements(a *models.Activity) scheduling.ActivityRequirements {
	return scheduling.ActivityRequirements{
		Start:          a.StartAt,
		End:            a.EndAt,
		College:        scheduling.ParseRequirement(a.CollegeRequired),
		Major:          scheduling.ParseRequirement(a.MajorRequired),
		MinProficiency: a.ChineseLevelMin,
	}
}
