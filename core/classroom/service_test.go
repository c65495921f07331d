package classroom_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semillerodigital/dashboard/core/classroom"
	testutil "github.com/semillerodigital/dashboard/tests"
)

var creds = classroom.Credentials{AccessToken: "token"}

func newService(client *testutil.FakeClient) (*classroom.Service, *testutil.RecordingLogger) {
	logger := &testutil.RecordingLogger{}
	return classroom.NewService(testutil.Config(), logger, &testutil.FakeProvider{Fake: client}), logger
}

func TestService_Unauthenticated(t *testing.T) {
	svc, _ := newService(testutil.SampleClient())
	ctx := context.Background()
	noCreds := classroom.Credentials{}

	_, err := svc.CoordinatorCourses(ctx, noCreds)
	assert.Equal(t, classroom.ErrUnauthenticated, err)
	_, err = svc.MyCourses(ctx, noCreds)
	assert.Equal(t, classroom.ErrUnauthenticated, err)
	_, err = svc.CourseOverview(ctx, noCreds, "c1")
	assert.Equal(t, classroom.ErrUnauthenticated, err)
	_, err = svc.CourseWorkReport(ctx, noCreds, "c1", "w1")
	assert.Equal(t, classroom.ErrUnauthenticated, err)
}

func TestService_PassesCredentials(t *testing.T) {
	provider := &testutil.FakeProvider{Fake: testutil.SampleClient()}
	svc := classroom.NewService(testutil.Config(), &testutil.RecordingLogger{}, provider)

	_, err := svc.MyCourses(context.Background(), classroom.Credentials{AccessToken: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "abc", provider.LastCreds.AccessToken)
}

func TestService_CoordinatorCourses(t *testing.T) {
	client := testutil.SampleClient()
	client.Errs = map[string]error{"ListTeachers:c3": testutil.NotFound("listTeachers")}
	svc, logger := newService(client)

	courses, err := svc.CoordinatorCourses(context.Background(), creds)
	require.NoError(t, err)
	require.Len(t, courses, 3)

	assert.Equal(t, "c1", courses[0].ID)
	assert.Equal(t, []string{"Ana"}, courses[0].Teachers)
	assert.Equal(t, []string{"Luis", "Ana"}, courses[1].Teachers)
	assert.Empty(t, courses[2].Teachers, "teacher failure degrades to no teachers")
	assert.Len(t, logger.Levels("warn"), 1)

	assert.Equal(t, []string{"Ana", "Luis"}, classroom.Teachers(courses))
	assert.Len(t, classroom.FilterByTeacher(courses, ""), 3)
	assert.Len(t, classroom.FilterByTeacher(courses, "all"), 3)
	assert.Len(t, classroom.FilterByTeacher(courses, "Ana"), 2)
	assert.Len(t, classroom.FilterByTeacher(courses, "Luis"), 1)
	assert.Empty(t, classroom.FilterByTeacher(courses, "Nadie"))
}

func TestService_CoordinatorCourses_ListFails(t *testing.T) {
	client := testutil.SampleClient()
	upstreamErr := classroom.NewUpstreamFetchError("listCourses", "No se pudieron obtener los cursos de Google Classroom.", 500, fmt.Errorf("boom"))
	client.Errs = map[string]error{"ListCourses": upstreamErr}
	svc, _ := newService(client)

	_, err := svc.CoordinatorCourses(context.Background(), creds)
	require.Error(t, err)
	assert.Same(t, upstreamErr, errors.Cause(err))
	assert.Zero(t, client.CallCount("ListTeachers"))
}

func TestService_CoordinatorCourses_Canceled(t *testing.T) {
	client := testutil.SampleClient()
	svc, _ := newService(client)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	courses, err := svc.CoordinatorCourses(ctx, creds)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.Nil(t, courses, "no courses without their teachers")
}

func TestService_MyCourses(t *testing.T) {
	svc, _ := newService(testutil.SampleClient())

	res, err := svc.MyCourses(context.Background(), creds)
	require.NoError(t, err)
	require.Len(t, res.Teaching, 1)
	require.Len(t, res.Enrolled, 1)
	assert.Equal(t, "c1", res.Teaching[0].ID)
	assert.Equal(t, "c9", res.Enrolled[0].ID)
}

func TestService_CourseOverview(t *testing.T) {
	svc, _ := newService(testutil.SampleClient())

	res, err := svc.CourseOverview(context.Background(), creds, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Programación", res.Course.Name)
	assert.Len(t, res.Students, 3)
	assert.Len(t, res.CourseWork, 1)
}

func TestService_CourseWorkReport(t *testing.T) {
	client := testutil.SampleClient()
	svc, _ := newService(client)

	report, err := svc.CourseWorkReport(context.Background(), creds, "c1", "w1")
	require.NoError(t, err)

	assert.Equal(t, "Programación", report.Course.Name)
	assert.Equal(t, "TP 1", report.Work.Title)
	assert.Equal(t, classroom.Summary{Total: 3, Submitted: 2, Late: 1, Pending: 1}, report.Summary)
	require.Len(t, report.Rows, 3)

	want := []classroom.Status{classroom.StatusSubmitted, classroom.StatusLate, classroom.StatusMissing}
	for i, row := range report.Rows {
		assert.Equal(t, want[i], row.Status.Status, row.UserID)
		assert.Equal(t, "Sin calificar", row.Grade)
		assert.Equal(t, "-", row.SubmittedAt)
	}

	for _, op := range []string{"GetCourseWork", "ListSubmissions", "GetCourse", "ListStudents"} {
		assert.Equal(t, 1, client.CallCount(op), op)
	}
}

func TestService_CourseWorkReport_AnyFailureAborts(t *testing.T) {
	for _, op := range []string{"GetCourseWork", "ListSubmissions", "GetCourse", "ListStudents"} {
		t.Run(op, func(t *testing.T) {
			client := testutil.SampleClient()
			upstreamErr := classroom.NewUpstreamFetchError(op, "No se pudo obtener el detalle de la tarea.", 403, fmt.Errorf("HTTP 403"))
			client.Errs = map[string]error{op: upstreamErr}
			svc, _ := newService(client)

			report, err := svc.CourseWorkReport(context.Background(), creds, "c1", "w1")
			require.Error(t, err)
			assert.Empty(t, report.Rows)

			got, ok := classroom.AsUpstreamFetchError(err)
			require.True(t, ok)
			assert.Same(t, upstreamErr, got)
			assert.Same(t, upstreamErr, errors.Cause(err))
		})
	}
}

func TestService_CourseOverview_AnyFailureAborts(t *testing.T) {
	for _, op := range []string{"GetCourse", "ListStudents", "ListCourseWork"} {
		t.Run(op, func(t *testing.T) {
			client := testutil.SampleClient()
			upstreamErr := classroom.NewUpstreamFetchError(op, "No se pudo obtener la información del curso.", 500, fmt.Errorf("HTTP 500"))
			client.Errs = map[string]error{op: upstreamErr}
			svc, _ := newService(client)

			_, err := svc.CourseOverview(context.Background(), creds, "c1")
			assert.Same(t, upstreamErr, errors.Cause(err))
		})
	}
}

func TestService_ProviderFailure(t *testing.T) {
	provider := &testutil.FakeProvider{Err: fmt.Errorf("no transport")}
	svc := classroom.NewService(testutil.Config(), &testutil.RecordingLogger{}, provider)

	_, err := svc.MyCourses(context.Background(), creds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening classroom client")
}
