package domain

import "strings"

// AnnouncementCategory classifies course announcements.
type AnnouncementCategory string

const (
	CategoryAssignment AnnouncementCategory = "ASSIGNMENT"
	CategoryExam       AnnouncementCategory = "EXAM"
	CategoryDeadline   AnnouncementCategory = "DEADLINE"
	CategoryGrade      AnnouncementCategory = "GRADE"
	CategoryGeneral    AnnouncementCategory = "GENERAL"
	CategoryOther      AnnouncementCategory = "OTHER"
)

// ParseAnnouncementCategory is case-insensitive. Anything it doesn't know maps to OTHER.
func ParseAnnouncementCategory(raw string) AnnouncementCategory {
	switch c := AnnouncementCategory(strings.ToUpper(strings.TrimSpace(raw))); c {
	case CategoryAssignment, CategoryExam, CategoryDeadline, CategoryGrade, CategoryGeneral:
		return c
	default:
		return CategoryOther
	}
}

// Marker is the icon rendered in front of the course name.
func (c AnnouncementCategory) Marker() string {
	switch c {
	case CategoryAssignment:
		return "📝"
	case CategoryExam:
		return "📚"
	case CategoryDeadline:
		return "⏰"
	case CategoryGrade:
		return "📊"
	case CategoryGeneral:
		return "ℹ️"
	default:
		return "📢"
	}
}

// Announcement holds the fields specific to an announcement message.
type Announcement struct {
	CourseID   string
	CourseName string
	Important  bool
	Category   AnnouncementCategory
}

func (a Announcement) importanceMarker() string {
	if a.Important {
		return "🚨"
	}
	return "📢"
}
