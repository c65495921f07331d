package classroom

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/semillerodigital/dashboard/core"
)

const defaultMaxParallel = 8

type (
	// Service assembles the data of each dashboard page from the Classroom API.
	Service struct {
		provider    Provider
		logger      core.Logger
		maxParallel int
	}

	MyCourses struct {
		Teaching []Course
		Enrolled []Course
	}

	CourseOverview struct {
		Course     Course
		Students   []Student
		CourseWork []CourseWork
	}

	ReportRow struct {
		EnrichedStudent
		Status      StatusInfo
		Grade       string
		SubmittedAt string
	}

	// Report is the per-student delivery status of one course-work item.
	Report struct {
		Course  Course
		Work    CourseWork
		Rows    []ReportRow
		Summary Summary
	}
)

func NewService(conf *core.Config, logger core.Logger, provider Provider) *Service {
	maxParallel := conf.Classroom.MaxParallel
	if maxParallel < 1 {
		maxParallel = defaultMaxParallel
	}
	return &Service{
		provider:    provider,
		logger:      logger,
		maxParallel: maxParallel,
	}
}

func (svc *Service) client(ctx context.Context, creds Credentials) (Client, error) {
	if !creds.Valid() {
		return nil, ErrUnauthenticated
	}
	cl, err := svc.provider.Client(ctx, creds)
	if err != nil {
		return nil, errors.Wrap(err, "opening classroom client")
	}
	return cl, nil
}

// CoordinatorCourses lists every course with its teachers.
// A failure listing the teachers of one course is logged and leaves that course without teachers.
func (svc *Service) CoordinatorCourses(ctx context.Context, creds Credentials) ([]CourseWithTeachers, error) {
	cl, err := svc.client(ctx, creds)
	if err != nil {
		return nil, err
	}
	courses, err := cl.ListCourses(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing courses")
	}

	result := make([]CourseWithTeachers, len(courses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(svc.maxParallel)
	for i := range courses {
		i := i
		result[i].Course = courses[i]
		g.Go(func() error {
			teachers, err := cl.ListTeachers(gctx, courses[i].ID)
			if err != nil {
				svc.logger.Warn(fmt.Sprintf("listing teachers of course %s: %v", courses[i].ID, err), err)
				return nil
			}
			names := make([]string, 0, len(teachers))
			for _, t := range teachers {
				if t.Profile.Name.FullName != "" {
					names = append(names, t.Profile.Name.FullName)
				}
			}
			result[i].Teachers = names
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "listing teachers")
	}
	return result, nil
}

// Teachers returns the distinct teacher names of courses, in first-seen order.
func Teachers(courses []CourseWithTeachers) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, c := range courses {
		for _, t := range c.Teachers {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				names = append(names, t)
			}
		}
	}
	return names
}

// FilterByTeacher keeps the courses taught by name; "" and "all" keep everything.
func FilterByTeacher(courses []CourseWithTeachers, name string) []CourseWithTeachers {
	if name == "" || name == "all" {
		return courses
	}
	filtered := make([]CourseWithTeachers, 0, len(courses))
	for _, c := range courses {
		if c.HasTeacher(name) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// MyCourses lists the active courses the user teaches and the ones they are enrolled in.
func (svc *Service) MyCourses(ctx context.Context, creds Credentials) (MyCourses, error) {
	var res MyCourses
	cl, err := svc.client(ctx, creds)
	if err != nil {
		return res, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		courses, err := cl.ListCoursesAsTeacher(gctx)
		res.Teaching = courses
		return errors.Wrap(err, "listing taught courses")
	})
	g.Go(func() error {
		courses, err := cl.ListCoursesAsStudent(gctx)
		res.Enrolled = courses
		return errors.Wrap(err, "listing enrolled courses")
	})
	if err := g.Wait(); err != nil {
		return MyCourses{}, err
	}
	return res, nil
}

// CourseOverview fetches a course with its roster and course work.
func (svc *Service) CourseOverview(ctx context.Context, creds Credentials, courseID string) (CourseOverview, error) {
	var res CourseOverview
	cl, err := svc.client(ctx, creds)
	if err != nil {
		return res, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		course, err := cl.GetCourse(gctx, courseID)
		res.Course = course
		return errors.Wrap(err, "getting course")
	})
	g.Go(func() error {
		students, err := cl.ListStudents(gctx, courseID)
		res.Students = students
		return errors.Wrap(err, "listing students")
	})
	g.Go(func() error {
		work, err := cl.ListCourseWork(gctx, courseID)
		res.CourseWork = work
		return errors.Wrap(err, "listing course work")
	})
	if err := g.Wait(); err != nil {
		return CourseOverview{}, err
	}
	return res, nil
}

// CourseWorkReport fetches a course-work item, its submissions, its course and the roster,
// then joins & classifies every student.
func (svc *Service) CourseWorkReport(ctx context.Context, creds Credentials, courseID, courseWorkID string) (Report, error) {
	cl, err := svc.client(ctx, creds)
	if err != nil {
		return Report{}, err
	}

	var (
		work        CourseWork
		submissions []Submission
		course      Course
		students    []Student
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		work, err = cl.GetCourseWork(gctx, courseID, courseWorkID)
		return errors.Wrap(err, "getting course work")
	})
	g.Go(func() error {
		var err error
		submissions, err = cl.ListSubmissions(gctx, courseID, courseWorkID)
		return errors.Wrap(err, "listing submissions")
	})
	g.Go(func() error {
		var err error
		course, err = cl.GetCourse(gctx, courseID)
		return errors.Wrap(err, "getting course")
	})
	g.Go(func() error {
		var err error
		students, err = cl.ListStudents(gctx, courseID)
		return errors.Wrap(err, "listing students")
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	return BuildReport(course, work, students, submissions), nil
}

// BuildReport joins the roster with the submissions and classifies every row.
func BuildReport(course Course, work CourseWork, students []Student, submissions []Submission) Report {
	joined := JoinSubmissions(students, submissions)
	rows := make([]ReportRow, 0, len(joined))
	for _, st := range joined {
		row := ReportRow{
			EnrichedStudent: st,
			Status:          ClassifyStatus(st.Submission, work.DueDate),
			Grade:           GradeLabel(st.Submission, work),
			SubmittedAt:     "-",
		}
		if st.Submission != nil {
			row.SubmittedAt = FormatTimestamp(st.Submission.UpdateTime)
		}
		rows = append(rows, row)
	}
	return Report{
		Course:  course,
		Work:    work,
		Rows:    rows,
		Summary: Summarize(joined),
	}
}
