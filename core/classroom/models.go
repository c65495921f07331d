package classroom

import (
	"strings"
	"time"
)

type CourseState string

const (
	CourseActive      CourseState = "ACTIVE"
	CourseArchived    CourseState = "ARCHIVED"
	CourseProvisioned CourseState = "PROVISIONED"
	CourseDeclined    CourseState = "DECLINED"
	CourseSuspended   CourseState = "SUSPENDED"
)

type Course struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Section            string      `json:"section,omitempty"`
	DescriptionHeading string      `json:"descriptionHeading,omitempty"`
	Room               string      `json:"room,omitempty"`
	OwnerID            string      `json:"ownerId,omitempty"`
	CreationTime       *time.Time  `json:"creationTime,omitempty"`
	UpdateTime         *time.Time  `json:"updateTime,omitempty"`
	EnrollmentCode     string      `json:"enrollmentCode,omitempty"`
	State              CourseState `json:"courseState,omitempty"`
	AlternateLink      string      `json:"alternateLink,omitempty"`
}

// DisplaySection returns the course section or the "no section" placeholder.
func (c Course) DisplaySection() string {
	if c.Section == "" {
		return "Sin sección"
	}
	return c.Section
}

// CourseWithTeachers is a Course plus the full names of its teachers.
type CourseWithTeachers struct {
	Course
	Teachers []string `json:"teachers"`
}

func (c CourseWithTeachers) HasTeacher(name string) bool {
	for _, t := range c.Teachers {
		if t == name {
			return true
		}
	}
	return false
}

// DisplayTeachers joins teacher names, or returns the "no teacher" placeholder.
func (c CourseWithTeachers) DisplayTeachers() string {
	if len(c.Teachers) == 0 {
		return "Sin profesor asignado"
	}
	return strings.Join(c.Teachers, ", ")
}

type Name struct {
	FullName   string `json:"fullName"`
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
}

type Profile struct {
	Name         Name   `json:"name"`
	EmailAddress string `json:"emailAddress"`
	PhotoURL     string `json:"photoUrl,omitempty"`
}

func (p Profile) DisplayName() string {
	if p.Name.FullName == "" {
		return "Sin nombre"
	}
	return p.Name.FullName
}

func (p Profile) DisplayEmail() string {
	if p.EmailAddress == "" {
		return "Sin email"
	}
	return p.EmailAddress
}

// Initials returns the first letters of the given & family names,
// falling back to the first letter of the full name and then to "?".
func (p Profile) Initials() string {
	given, family := firstRune(p.Name.GivenName), firstRune(p.Name.FamilyName)
	if given != "" {
		return given + family
	}
	if full := firstRune(p.Name.FullName); full != "" {
		return full
	}
	return "?"
}

func firstRune(s string) string {
	for _, r := range strings.TrimSpace(s) {
		return strings.ToUpper(string(r))
	}
	return ""
}

// Student is a roster entry. UserID is unique within a course.
type Student struct {
	CourseID string  `json:"courseId"`
	UserID   string  `json:"userId"`
	Profile  Profile `json:"profile"`
}

type Teacher struct {
	CourseID string  `json:"courseId"`
	UserID   string  `json:"userId"`
	Profile  Profile `json:"profile"`
}

// Date is a calendar date with a 1-indexed month. Zero fields mean "unset".
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (d *Date) IsSet() bool {
	return d != nil && d.Year != 0 && d.Month != 0 && d.Day != 0
}

// Time returns the date at midnight in loc, normalizing out-of-range values (month 13 -> January next year).
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, loc)
}

type CourseWorkState string

const (
	CourseWorkPublished CourseWorkState = "PUBLISHED"
	CourseWorkDraft     CourseWorkState = "DRAFT"
	CourseWorkDeleted   CourseWorkState = "DELETED"
)

type CourseWork struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	State        CourseWorkState `json:"state"`
	CreationTime *time.Time      `json:"creationTime,omitempty"`
	UpdateTime   *time.Time      `json:"updateTime,omitempty"`
	MaxPoints    *float64        `json:"maxPoints,omitempty"`
	DueDate      *Date           `json:"dueDate,omitempty"`
}

// SubmissionState is the upstream state of a student submission.
type SubmissionState string

const (
	StateUnspecified        SubmissionState = "SUBMISSION_STATE_UNSPECIFIED"
	StateNew                SubmissionState = "NEW"
	StateCreated            SubmissionState = "CREATED"
	StateTurnedIn           SubmissionState = "TURNED_IN"
	StateReturned           SubmissionState = "RETURNED"
	StateReclaimedByStudent SubmissionState = "RECLAIMED_BY_STUDENT"
)

var SubmissionStates = []SubmissionState{StateNew, StateCreated, StateTurnedIn, StateReturned, StateReclaimedByStudent}

// ParseSubmissionState maps an upstream value to a known state; anything unknown is StateUnspecified.
func ParseSubmissionState(s string) SubmissionState {
	for _, state := range SubmissionStates {
		if string(state) == s {
			return state
		}
	}
	return StateUnspecified
}

// Delivered reports whether the state counts as handed in (turned in or already graded & returned).
func (s SubmissionState) Delivered() bool {
	return s == StateTurnedIn || s == StateReturned
}

// Submission is a student's delivery record for one course-work item.
type Submission struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	State         SubmissionState `json:"state"`
	Late          bool            `json:"late,omitempty"`
	AssignedGrade *float64        `json:"assignedGrade,omitempty"`
	UpdateTime    *time.Time      `json:"updateTime,omitempty"`
	CreationTime  *time.Time      `json:"creationTime,omitempty"`
}
