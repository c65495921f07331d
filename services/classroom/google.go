// Package classroomsvc provides the classroom.Provider implementations: Google Classroom and a local fixture file.
package classroomsvc

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	gclassroom "google.golang.org/api/classroom/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/semillerodigital/dashboard/core"
	"github.com/semillerodigital/dashboard/core/classroom"
)

const pageSize = 100

// upstream operations & the message shown to users when they fail
const (
	opListCourses          = "listCourses"
	opListCoursesAsTeacher = "listCoursesAsTeacher"
	opListCoursesAsStudent = "listCoursesAsStudent"
	opGetCourse            = "getCourse"
	opListStudents         = "listStudents"
	opListTeachers         = "listTeachers"
	opListCourseWork       = "listCourseWork"
	opGetCourseWork        = "getCourseWork"
	opListSubmissions      = "listSubmissions"
)

var messages = map[string]string{
	opListCourses:          "No se pudieron obtener los cursos de Google Classroom.",
	opListCoursesAsTeacher: "No se pudieron obtener los cursos impartidos.",
	opListCoursesAsStudent: "No se pudieron obtener los cursos en los que está inscrito.",
	opGetCourse:            "No se pudo obtener la información del curso.",
	opListStudents:         "No se pudieron obtener los alumnos del curso.",
	opListTeachers:         "No se pudieron obtener los profesores del curso.",
	opListCourseWork:       "No se pudieron obtener las tareas del curso.",
	opGetCourseWork:        "No se pudo obtener el detalle de la tarea.",
	opListSubmissions:      "No se pudieron obtener las entregas de los alumnos.",
}

// GoogleProvider opens Classroom API clients authorized with the session's access token.
type GoogleProvider struct {
	endpoint string
	// base transport; nil means http.DefaultClient
	httpClient *http.Client
}

var _ classroom.Provider = (*GoogleProvider)(nil)

func NewGoogleProvider(conf *core.Config) *GoogleProvider {
	return &GoogleProvider{endpoint: conf.Google.ClassroomEndpoint}
}

// WithHTTPClient sets the base HTTP client the bearer token is attached to.
func (p *GoogleProvider) WithHTTPClient(cl *http.Client) *GoogleProvider {
	p.httpClient = cl
	return p
}

func (p *GoogleProvider) Client(ctx context.Context, creds classroom.Credentials) (classroom.Client, error) {
	if !creds.Valid() {
		return nil, classroom.ErrUnauthenticated
	}

	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: creds.AccessToken,
		TokenType:   "Bearer",
	}))

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}
	srv, err := gclassroom.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "gclassroom.NewService")
	}
	return &googleClient{srv: srv}, nil
}

type googleClient struct {
	srv *gclassroom.Service
}

var _ classroom.Client = (*googleClient)(nil)

func (c *googleClient) ListCourses(ctx context.Context) ([]classroom.Course, error) {
	return c.listCourses(ctx, opListCourses, c.srv.Courses.List())
}

func (c *googleClient) ListCoursesAsTeacher(ctx context.Context) ([]classroom.Course, error) {
	call := c.srv.Courses.List().TeacherId("me").CourseStates(string(classroom.CourseActive))
	return c.listCourses(ctx, opListCoursesAsTeacher, call)
}

func (c *googleClient) ListCoursesAsStudent(ctx context.Context) ([]classroom.Course, error) {
	call := c.srv.Courses.List().StudentId("me").CourseStates(string(classroom.CourseActive))
	return c.listCourses(ctx, opListCoursesAsStudent, call)
}

func (c *googleClient) listCourses(ctx context.Context, op string, call *gclassroom.CoursesListCall) ([]classroom.Course, error) {
	courses := make([]classroom.Course, 0)
	err := call.PageSize(pageSize).Pages(ctx, func(resp *gclassroom.ListCoursesResponse) error {
		for _, course := range resp.Courses {
			courses = append(courses, toCourse(course))
		}
		return nil
	})
	if err != nil {
		return nil, upstreamError(op, err)
	}
	return courses, nil
}

func (c *googleClient) GetCourse(ctx context.Context, courseID string) (classroom.Course, error) {
	course, err := c.srv.Courses.Get(courseID).Context(ctx).Do()
	if err != nil {
		return classroom.Course{}, upstreamError(opGetCourse, err)
	}
	return toCourse(course), nil
}

func (c *googleClient) ListStudents(ctx context.Context, courseID string) ([]classroom.Student, error) {
	students := make([]classroom.Student, 0)
	err := c.srv.Courses.Students.List(courseID).PageSize(pageSize).Pages(ctx, func(resp *gclassroom.ListStudentsResponse) error {
		for _, st := range resp.Students {
			students = append(students, classroom.Student{
				CourseID: st.CourseId,
				UserID:   st.UserId,
				Profile:  toProfile(st.Profile),
			})
		}
		return nil
	})
	if err != nil {
		return nil, upstreamError(opListStudents, err)
	}
	return students, nil
}

func (c *googleClient) ListTeachers(ctx context.Context, courseID string) ([]classroom.Teacher, error) {
	teachers := make([]classroom.Teacher, 0)
	err := c.srv.Courses.Teachers.List(courseID).PageSize(pageSize).Pages(ctx, func(resp *gclassroom.ListTeachersResponse) error {
		for _, t := range resp.Teachers {
			teachers = append(teachers, classroom.Teacher{
				CourseID: t.CourseId,
				UserID:   t.UserId,
				Profile:  toProfile(t.Profile),
			})
		}
		return nil
	})
	if err != nil {
		return nil, upstreamError(opListTeachers, err)
	}
	return teachers, nil
}

func (c *googleClient) ListCourseWork(ctx context.Context, courseID string) ([]classroom.CourseWork, error) {
	work := make([]classroom.CourseWork, 0)
	call := c.srv.Courses.CourseWork.List(courseID).OrderBy("dueDate asc").PageSize(pageSize)
	err := call.Pages(ctx, func(resp *gclassroom.ListCourseWorkResponse) error {
		for _, cw := range resp.CourseWork {
			work = append(work, toCourseWork(cw))
		}
		return nil
	})
	if err != nil {
		return nil, upstreamError(opListCourseWork, err)
	}
	return work, nil
}

func (c *googleClient) GetCourseWork(ctx context.Context, courseID, courseWorkID string) (classroom.CourseWork, error) {
	cw, err := c.srv.Courses.CourseWork.Get(courseID, courseWorkID).Context(ctx).Do()
	if err != nil {
		return classroom.CourseWork{}, upstreamError(opGetCourseWork, err)
	}
	return toCourseWork(cw), nil
}

func (c *googleClient) ListSubmissions(ctx context.Context, courseID, courseWorkID string) ([]classroom.Submission, error) {
	submissions := make([]classroom.Submission, 0)
	call := c.srv.Courses.CourseWork.StudentSubmissions.List(courseID, courseWorkID).PageSize(pageSize)
	err := call.Pages(ctx, func(resp *gclassroom.ListStudentSubmissionsResponse) error {
		for _, sub := range resp.StudentSubmissions {
			submissions = append(submissions, toSubmission(sub))
		}
		return nil
	})
	if err != nil {
		return nil, upstreamError(opListSubmissions, err)
	}
	return submissions, nil
}

// upstreamError wraps any failure of op; the HTTP status is kept when the API answered.
func upstreamError(op string, err error) error {
	var code int
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		code = gerr.Code
	}
	return classroom.NewUpstreamFetchError(op, messages[op], code, err)
}

func toCourse(c *gclassroom.Course) classroom.Course {
	if c == nil {
		return classroom.Course{}
	}
	return classroom.Course{
		ID:                 c.Id,
		Name:               c.Name,
		Section:            c.Section,
		DescriptionHeading: c.DescriptionHeading,
		Room:               c.Room,
		OwnerID:            c.OwnerId,
		CreationTime:       parseTime(c.CreationTime),
		UpdateTime:         parseTime(c.UpdateTime),
		EnrollmentCode:     c.EnrollmentCode,
		State:              classroom.CourseState(c.CourseState),
		AlternateLink:      c.AlternateLink,
	}
}

func toProfile(p *gclassroom.UserProfile) classroom.Profile {
	if p == nil {
		return classroom.Profile{}
	}
	profile := classroom.Profile{
		EmailAddress: p.EmailAddress,
		PhotoURL:     p.PhotoUrl,
	}
	if p.Name != nil {
		profile.Name = classroom.Name{
			FullName:   p.Name.FullName,
			GivenName:  p.Name.GivenName,
			FamilyName: p.Name.FamilyName,
		}
	}
	return profile
}

func toCourseWork(cw *gclassroom.CourseWork) classroom.CourseWork {
	if cw == nil {
		return classroom.CourseWork{}
	}
	work := classroom.CourseWork{
		ID:           cw.Id,
		Title:        cw.Title,
		Description:  cw.Description,
		State:        classroom.CourseWorkState(cw.State),
		CreationTime: parseTime(cw.CreationTime),
		UpdateTime:   parseTime(cw.UpdateTime),
	}
	// the client library cannot tell an absent maxPoints from 0; both mean "ungraded"
	if cw.MaxPoints != 0 {
		maxPoints := cw.MaxPoints
		work.MaxPoints = &maxPoints
	}
	if cw.DueDate != nil {
		work.DueDate = &classroom.Date{
			Year:  int(cw.DueDate.Year),
			Month: int(cw.DueDate.Month),
			Day:   int(cw.DueDate.Day),
		}
	}
	return work
}

func toSubmission(s *gclassroom.StudentSubmission) classroom.Submission {
	if s == nil {
		return classroom.Submission{}
	}
	sub := classroom.Submission{
		ID:           s.Id,
		UserID:       s.UserId,
		State:        classroom.ParseSubmissionState(s.State),
		Late:         s.Late,
		UpdateTime:   parseTime(s.UpdateTime),
		CreationTime: parseTime(s.CreationTime),
	}
	// a returned submission is graded even with a 0; otherwise 0 is indistinguishable from "no grade"
	if s.AssignedGrade != 0 || sub.State == classroom.StateReturned {
		grade := s.AssignedGrade
		sub.AssignedGrade = &grade
	}
	return sub
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
