package classroom

import "context"

// Credentials carry the signed in user's authority to the Classroom API.
// They are passed explicitly to every fetch; nothing reads an ambient session.
type Credentials struct {
	AccessToken string
}

func (c Credentials) Valid() bool { return c.AccessToken != "" }

// Client reads Classroom resources on behalf of one user.
// Every method fails with *UpstreamFetchError when the remote call does not succeed.
type Client interface {
	// ListCourses lists every course visible to the user.
	ListCourses(ctx context.Context) ([]Course, error)
	// ListCoursesAsTeacher lists the active courses the user teaches.
	ListCoursesAsTeacher(ctx context.Context) ([]Course, error)
	// ListCoursesAsStudent lists the active courses the user is enrolled in.
	ListCoursesAsStudent(ctx context.Context) ([]Course, error)
	GetCourse(ctx context.Context, courseID string) (Course, error)
	ListStudents(ctx context.Context, courseID string) ([]Student, error)
	ListTeachers(ctx context.Context, courseID string) ([]Teacher, error)
	// ListCourseWork lists the course work of a course ordered by due date, ascending.
	ListCourseWork(ctx context.Context, courseID string) ([]CourseWork, error)
	GetCourseWork(ctx context.Context, courseID, courseWorkID string) (CourseWork, error)
	ListSubmissions(ctx context.Context, courseID, courseWorkID string) ([]Submission, error)
}

// Provider opens a Client for the given Credentials.
type Provider interface {
	Client(ctx context.Context, creds Credentials) (Client, error)
}
