package classroomsvc

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/semillerodigital/dashboard/core"
	"github.com/semillerodigital/dashboard/core/classroom"
)

// Fixtures is the content of a fixture file.
type Fixtures struct {
	Courses []classroom.Course `json:"courses"`
	// IDs of the courses the signed in user teaches / is enrolled in
	Teaching []string `json:"teaching"`
	Enrolled []string `json:"enrolled"`

	Teachers    map[string][]classroom.Teacher    `json:"teachers"`    // by course ID
	Students    map[string][]classroom.Student    `json:"students"`    // by course ID
	CourseWork  map[string][]classroom.CourseWork `json:"courseWork"`  // by course ID
	Submissions map[string][]classroom.Submission `json:"submissions"` // by course work ID
}

// FixtureProvider serves Classroom data from memory, for local development & tests.
type FixtureProvider struct {
	fixtures Fixtures
}

var _ classroom.Provider = (*FixtureProvider)(nil)

// NewFixtureProvider loads conf.Classroom.FixturesPath (relative paths are resolved from the work dir).
func NewFixtureProvider(conf *core.Config) (*FixtureProvider, error) {
	path := conf.Classroom.FixturesPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(conf.WorkDir, path)
	}
	return LoadFixtureProvider(path)
}

func LoadFixtureProvider(path string) (*FixtureProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading fixtures")
	}
	var fixtures Fixtures
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, errors.Wrapf(err, "decoding fixtures %s", path)
	}
	return NewFixtureProviderFrom(fixtures), nil
}

func NewFixtureProviderFrom(fixtures Fixtures) *FixtureProvider {
	for _, subs := range fixtures.Submissions {
		for i := range subs {
			subs[i].State = classroom.ParseSubmissionState(string(subs[i].State))
		}
	}
	for _, work := range fixtures.CourseWork {
		sortByDueDate(work)
	}
	return &FixtureProvider{fixtures: fixtures}
}

func (p *FixtureProvider) Client(_ context.Context, creds classroom.Credentials) (classroom.Client, error) {
	if !creds.Valid() {
		return nil, classroom.ErrUnauthenticated
	}
	return &fixtureClient{fixtures: &p.fixtures}, nil
}

// sortByDueDate orders course work like the API's "dueDate asc": undated items last.
func sortByDueDate(work []classroom.CourseWork) {
	sort.SliceStable(work, func(i, j int) bool {
		a, b := work[i].DueDate, work[j].DueDate
		switch {
		case !a.IsSet():
			return false
		case !b.IsSet():
			return true
		}
		return a.Time(classroom.DisplayLocation).Before(b.Time(classroom.DisplayLocation))
	})
}

type fixtureClient struct {
	fixtures *Fixtures
}

var _ classroom.Client = (*fixtureClient)(nil)

func notFound(op string) error {
	return classroom.NewUpstreamFetchError(op, messages[op], 404, errors.New("not found"))
}

func (c *fixtureClient) ListCourses(ctx context.Context) ([]classroom.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, upstreamError(opListCourses, err)
	}
	return append([]classroom.Course{}, c.fixtures.Courses...), nil
}

func (c *fixtureClient) ListCoursesAsTeacher(ctx context.Context) ([]classroom.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, upstreamError(opListCoursesAsTeacher, err)
	}
	return c.coursesByID(c.fixtures.Teaching), nil
}

func (c *fixtureClient) ListCoursesAsStudent(ctx context.Context) ([]classroom.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, upstreamError(opListCoursesAsStudent, err)
	}
	return c.coursesByID(c.fixtures.Enrolled), nil
}

func (c *fixtureClient) coursesByID(ids []string) []classroom.Course {
	courses := make([]classroom.Course, 0, len(ids))
	for _, id := range ids {
		if course, ok := c.course(id); ok && course.State == classroom.CourseActive {
			courses = append(courses, course)
		}
	}
	return courses
}

func (c *fixtureClient) course(id string) (classroom.Course, bool) {
	for _, course := range c.fixtures.Courses {
		if course.ID == id {
			return course, true
		}
	}
	return classroom.Course{}, false
}

func (c *fixtureClient) GetCourse(ctx context.Context, courseID string) (classroom.Course, error) {
	if err := ctx.Err(); err != nil {
		return classroom.Course{}, upstreamError(opGetCourse, err)
	}
	course, ok := c.course(courseID)
	if !ok {
		return classroom.Course{}, notFound(opGetCourse)
	}
	return course, nil
}

func (c *fixtureClient) ListStudents(ctx context.Context, courseID string) ([]classroom.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, upstreamError(opListStudents, err)
	}
	if _, ok := c.course(courseID); !ok {
		return nil, notFound(opListStudents)
	}
	return append([]classroom.Student{}, c.fixtures.Students[courseID]...), nil
}

func (c *fixtureClient) ListTeachers(ctx context.Context, courseID string) ([]classroom.Teacher, error) {
	if err := ctx.Err(); err != nil {
		return nil, upstreamError(opListTeachers, err)
	}
	if _, ok := c.course(courseID); !ok {
		return nil, notFound(opListTeachers)
	}
	return append([]classroom.Teacher{}, c.fixtures.Teachers[courseID]...), nil
}

func (c *fixtureClient) ListCourseWork(ctx context.Context, courseID string) ([]classroom.CourseWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, upstreamError(opListCourseWork, err)
	}
	if _, ok := c.course(courseID); !ok {
		return nil, notFound(opListCourseWork)
	}
	return append([]classroom.CourseWork{}, c.fixtures.CourseWork[courseID]...), nil
}

func (c *fixtureClient) GetCourseWork(ctx context.Context, courseID, courseWorkID string) (classroom.CourseWork, error) {
	if err := ctx.Err(); err != nil {
		return classroom.CourseWork{}, upstreamError(opGetCourseWork, err)
	}
	for _, cw := range c.fixtures.CourseWork[courseID] {
		if cw.ID == courseWorkID {
			return cw, nil
		}
	}
	return classroom.CourseWork{}, notFound(opGetCourseWork)
}

func (c *fixtureClient) ListSubmissions(ctx context.Context, courseID, courseWorkID string) ([]classroom.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, upstreamError(opListSubmissions, err)
	}
	if _, err := c.GetCourseWork(ctx, courseID, courseWorkID); err != nil {
		return nil, notFound(opListSubmissions)
	}
	return append([]classroom.Submission{}, c.fixtures.Submissions[courseWorkID]...), nil
}
