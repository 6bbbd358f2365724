package domain

import (
	"fmt"
	"strconv"
)

// Course is the variant data of a course discussion channel.
// The instructor is the creator of the channel.
type Course struct {
	CourseID             string
	Code                 string
	Name                 string
	InstructorID         UserID
	Semester             string
	Year                 int
	AllowStudentMessages bool
}

// NewCourseChannel derives the channel name and description from the course.
func NewCourseChannel(course Course) (*Channel, error) {
	for field, value := range map[string]string{
		"course id":   course.CourseID,
		"course code": course.Code,
		"course name": course.Name,
		"instructor":  string(course.InstructorID),
	} {
		if err := requireID(value, field); err != nil {
			return nil, err
		}
	}
	c := newChannel(CourseChannel, course.CourseIdentifier(),
		fmt.Sprintf("Course discussion channel for %s (%s)", course.Code, course.AcademicTerm()),
		course.InstructorID)
	c.course = course
	return c, nil
}

func (c Course) IsInstructor(userID UserID) bool { return userID == c.InstructorID }

// AcademicTerm renders e.g. "Fall 2024".
func (c Course) AcademicTerm() string {
	return c.Semester + " " + strconv.Itoa(c.Year)
}

// CourseIdentifier renders e.g. "CS101 - Introduction to Programming".
func (c Course) CourseIdentifier() string {
	return c.Code + " - " + c.Name
}

// SetAllowStudentMessages opens or closes the course to student posts.
// It reports false when c is not a course channel.
func (c *Channel) SetAllowStudentMessages(allow bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kind != CourseChannel {
		return false
	}
	c.course.AllowStudentMessages = allow
	return true
}
