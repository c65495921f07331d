package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/semillerodigital/dashboard/core/classroom"
)

// page messages
const (
	msgMyCoursesFailed  = "Error al cargar tus cursos."
	msgCourseFailed     = "Error al cargar los datos del curso."
	msgCourseWorkFailed = "Error al cargar los detalles de la tarea. Por favor, intenta de nuevo."
)

type (
	courseParams struct {
		CourseID string `param:"courseId" validate:"required,classroomid"`
	}

	courseWorkParams struct {
		CourseID     string `param:"courseId" validate:"required,classroomid"`
		CourseWorkID string `param:"courseWorkId" validate:"required,classroomid"`
	}

	dashboardPage struct {
		Courses  []classroom.CourseWithTeachers
		Teachers []string
		Teacher  string
		Error    string
	}

	coursePage struct {
		classroom.CourseOverview
		Back Link
	}
)

func (s *Server) home(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, "home", "", nil)
}

func (s *Server) unauthorized(ctx echo.Context) error {
	return s.render(ctx, http.StatusForbidden, "unauthorized", "Acceso Denegado", nil)
}

// dashboard lists every course with its teachers; ?teacher= keeps the courses of one teacher.
// An upstream failure is shown inline, with the upstream message.
func (s *Server) dashboard(ctx echo.Context) error {
	creds, err := s.getContextCredentials(ctx)
	if err != nil {
		return err
	}

	data := dashboardPage{Teacher: ctx.QueryParam("teacher")}
	if data.Teacher == "" {
		data.Teacher = "all"
	}

	courses, err := s.svc.CoordinatorCourses(ctx.Request().Context(), creds)
	if err != nil {
		upErr, ok := classroom.AsUpstreamFetchError(err)
		if !ok {
			return errors.Wrap(err, "listing coordinator courses")
		}
		s.logger.Warn(upErr.Error(), upErr, s.logUser(ctx))
		data.Error = upErr.Message
		return s.render(ctx, http.StatusBadGateway, "dashboard", "Dashboard del Coordinador", data)
	}

	data.Teachers = classroom.Teachers(courses)
	data.Courses = classroom.FilterByTeacher(courses, data.Teacher)
	return s.render(ctx, http.StatusOK, "dashboard", "Dashboard del Coordinador", data)
}

func (s *Server) myCourses(ctx echo.Context) error {
	creds, err := s.getContextCredentials(ctx)
	if err != nil {
		return err
	}
	courses, err := s.svc.MyCourses(ctx.Request().Context(), creds)
	if err != nil {
		return pageFailure(err, msgMyCoursesFailed, &Link{URL: "/", Label: "Volver al inicio"})
	}
	return s.render(ctx, http.StatusOK, "me", "Mi Dashboard", courses)
}

func (s *Server) course(ctx echo.Context) error {
	params := courseParams{CourseID: ctx.Param("courseId")}
	if err := s.validate.Struct(params); err != nil {
		return err
	}
	creds, err := s.getContextCredentials(ctx)
	if err != nil {
		return err
	}

	back := s.homeLink(ctx)
	overview, err := s.svc.CourseOverview(ctx.Request().Context(), creds, params.CourseID)
	if err != nil {
		return pageFailure(err, msgCourseFailed, &back)
	}
	return s.render(ctx, http.StatusOK, "course", overview.Course.Name, coursePage{CourseOverview: overview, Back: back})
}

func (s *Server) courseWork(ctx echo.Context) error {
	params := courseWorkParams{
		CourseID:     ctx.Param("courseId"),
		CourseWorkID: ctx.Param("courseWorkId"),
	}
	if err := s.validate.Struct(params); err != nil {
		return err
	}
	creds, err := s.getContextCredentials(ctx)
	if err != nil {
		return err
	}

	report, err := s.svc.CourseWorkReport(ctx.Request().Context(), creds, params.CourseID, params.CourseWorkID)
	if err != nil {
		back := Link{URL: "/dashboard/course/" + params.CourseID, Label: "Volver al curso"}
		return pageFailure(err, msgCourseWorkFailed, &back)
	}
	return s.render(ctx, http.StatusOK, "work", report.Work.Title, report)
}

// homeLink points coordinators to the dashboard and everyone else to their own courses.
func (s *Server) homeLink(ctx echo.Context) Link {
	if usr, err := s.getContextUser(ctx); err == nil && usr.IsCoordinator() {
		return Link{URL: "/dashboard", Label: "Volver al Dashboard"}
	}
	return Link{URL: "/me", Label: "Volver a mis cursos"}
}
