// Package testutil holds builders & fakes shared by the tests of several packages.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/semillerodigital/dashboard/core"
	"github.com/semillerodigital/dashboard/core/classroom"
)

func Student(userID, fullName string, email ...string) classroom.Student {
	st := classroom.Student{
		UserID: userID,
		Profile: classroom.Profile{
			Name: classroom.Name{FullName: fullName},
		},
	}
	if len(email) > 0 {
		st.Profile.EmailAddress = email[0]
	}
	return st
}

func Roster(userIDs ...string) []classroom.Student {
	students := make([]classroom.Student, 0, len(userIDs))
	for _, id := range userIDs {
		students = append(students, Student(id, "Alumno "+id))
	}
	return students
}

func Submission(userID string, state classroom.SubmissionState, late bool) classroom.Submission {
	return classroom.Submission{
		ID:     "sub-" + userID,
		UserID: userID,
		State:  state,
		Late:   late,
	}
}

func Float(f float64) *float64 { return &f }

func Time(t time.Time) *time.Time { return &t }

// FakeClient is an in-memory classroom.Client. Set Errs[op] to make an operation fail.
type FakeClient struct {
	mu sync.Mutex

	Courses         []classroom.Course
	TeachingCourses []classroom.Course
	EnrolledCourses []classroom.Course

	// keyed by course ID
	Students   map[string][]classroom.Student
	Teachers   map[string][]classroom.Teacher
	CourseWork map[string][]classroom.CourseWork

	// keyed by course work ID
	Submissions map[string][]classroom.Submission

	// keyed by op name; Errs["ListTeachers:<courseID>"] fails a single course
	Errs  map[string]error
	Calls map[string]int
}

var _ classroom.Client = (*FakeClient)(nil)

func (c *FakeClient) call(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Calls == nil {
		c.Calls = make(map[string]int)
	}
	c.Calls[op]++
	return c.Errs[op]
}

// CallCount is safe to use while requests are in flight.
func (c *FakeClient) CallCount(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Calls[op]
}

func (c *FakeClient) ListCourses(context.Context) ([]classroom.Course, error) {
	if err := c.call("ListCourses"); err != nil {
		return nil, err
	}
	return c.Courses, nil
}

func (c *FakeClient) ListCoursesAsTeacher(context.Context) ([]classroom.Course, error) {
	if err := c.call("ListCoursesAsTeacher"); err != nil {
		return nil, err
	}
	return c.TeachingCourses, nil
}

func (c *FakeClient) ListCoursesAsStudent(context.Context) ([]classroom.Course, error) {
	if err := c.call("ListCoursesAsStudent"); err != nil {
		return nil, err
	}
	return c.EnrolledCourses, nil
}

func (c *FakeClient) GetCourse(_ context.Context, courseID string) (classroom.Course, error) {
	if err := c.call("GetCourse"); err != nil {
		return classroom.Course{}, err
	}
	for _, list := range [][]classroom.Course{c.Courses, c.TeachingCourses, c.EnrolledCourses} {
		for _, course := range list {
			if course.ID == courseID {
				return course, nil
			}
		}
	}
	return classroom.Course{}, NotFound("getCourse")
}

func (c *FakeClient) ListStudents(_ context.Context, courseID string) ([]classroom.Student, error) {
	if err := c.call("ListStudents"); err != nil {
		return nil, err
	}
	return c.Students[courseID], nil
}

func (c *FakeClient) ListTeachers(_ context.Context, courseID string) ([]classroom.Teacher, error) {
	if err := c.call("ListTeachers"); err != nil {
		return nil, err
	}
	if err := c.Errs["ListTeachers:"+courseID]; err != nil {
		return nil, err
	}
	return c.Teachers[courseID], nil
}

func (c *FakeClient) ListCourseWork(_ context.Context, courseID string) ([]classroom.CourseWork, error) {
	if err := c.call("ListCourseWork"); err != nil {
		return nil, err
	}
	return c.CourseWork[courseID], nil
}

func (c *FakeClient) GetCourseWork(_ context.Context, courseID, courseWorkID string) (classroom.CourseWork, error) {
	if err := c.call("GetCourseWork"); err != nil {
		return classroom.CourseWork{}, err
	}
	for _, cw := range c.CourseWork[courseID] {
		if cw.ID == courseWorkID {
			return cw, nil
		}
	}
	return classroom.CourseWork{}, NotFound("getCourseWork")
}

func (c *FakeClient) ListSubmissions(_ context.Context, _, courseWorkID string) ([]classroom.Submission, error) {
	if err := c.call("ListSubmissions"); err != nil {
		return nil, err
	}
	return c.Submissions[courseWorkID], nil
}

// SampleClient is a FakeClient with three courses ("c1" with a roster of three and one course work "w1").
func SampleClient() *FakeClient {
	course := classroom.Course{ID: "c1", Name: "Programación", Section: "A", State: classroom.CourseActive}
	due := &classroom.Date{Year: 2024, Month: 5, Day: 10}
	return &FakeClient{
		Courses: []classroom.Course{
			course,
			{ID: "c2", Name: "Diseño", State: classroom.CourseActive},
			{ID: "c3", Name: "Marketing", State: classroom.CourseActive},
		},
		TeachingCourses: []classroom.Course{course},
		EnrolledCourses: []classroom.Course{{ID: "c9", Name: "Inglés", State: classroom.CourseActive}},
		Teachers: map[string][]classroom.Teacher{
			"c1": {{UserID: "t1", Profile: classroom.Profile{Name: classroom.Name{FullName: "Ana"}}}},
			"c2": {
				{UserID: "t2", Profile: classroom.Profile{Name: classroom.Name{FullName: "Luis"}}},
				{UserID: "t1", Profile: classroom.Profile{Name: classroom.Name{FullName: "Ana"}}},
			},
		},
		Students: map[string][]classroom.Student{
			"c1": Roster("u1", "u2", "u3"),
		},
		CourseWork: map[string][]classroom.CourseWork{
			"c1": {{ID: "w1", Title: "TP 1", State: classroom.CourseWorkPublished, DueDate: due, MaxPoints: Float(10)}},
		},
		Submissions: map[string][]classroom.Submission{
			"w1": {
				Submission("u1", classroom.StateTurnedIn, false),
				Submission("u2", classroom.StateTurnedIn, true),
			},
		},
	}
}

// FakeProvider hands out its Client to any valid Credentials and records the last ones used.
type FakeProvider struct {
	Fake *FakeClient
	Err  error

	mu        sync.Mutex
	LastCreds classroom.Credentials
}

var _ classroom.Provider = (*FakeProvider)(nil)

func (p *FakeProvider) Client(_ context.Context, creds classroom.Credentials) (classroom.Client, error) {
	p.mu.Lock()
	p.LastCreds = creds
	p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Fake, nil
}

func NotFound(op string) *classroom.UpstreamFetchError {
	return classroom.NewUpstreamFetchError(op, "No encontrado.", 404, fmt.Errorf("HTTP 404"))
}

// Entry is one call made on a RecordingLogger.
type Entry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// RecordingLogger is a core.Logger that keeps every entry in memory.
type RecordingLogger struct {
	mu      sync.Mutex
	Entries []Entry
}

var _ core.Logger = (*RecordingLogger)(nil)

func (l *RecordingLogger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, Entry{Level: level, Msg: msg, Args: args})
}

func (l *RecordingLogger) Levels(level string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var entries []Entry
	for _, e := range l.Entries {
		if e.Level == level {
			entries = append(entries, e)
		}
	}
	return entries
}

func (l *RecordingLogger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *RecordingLogger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *RecordingLogger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *RecordingLogger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *RecordingLogger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

// Config returns a configuration suitable for tests (no .env lookup).
func Config() *core.Config {
	return &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Semillero Digital",
		Build:     "test",
		SecretKey: "test-secret-key-test-secret-key-0123",
		Server: core.ServerConfig{
			SessionExpirationDelta: time.Hour,
		},
		Classroom: core.ClassroomConfig{MaxParallel: 4},
		Log:       core.LogConfig{Level: "debug"},
	}
}
