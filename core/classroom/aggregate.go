package classroom

import "strconv"

// Status is the delivery status shown for one student on one course-work item.
type Status string

const (
	StatusMissing   Status = "MISSING"
	StatusLate      Status = "LATE"
	StatusSubmitted Status = "SUBMITTED"
	StatusReturned  Status = "RETURNED"
	StatusCreated   Status = "CREATED"
)

// StatusInfo is a Status with its display label & colour tag.
type StatusInfo struct {
	Status   Status `json:"status"`
	Label    string `json:"label"`
	ColorTag string `json:"colorTag"`
}

var (
	statusMissing   = StatusInfo{Status: StatusMissing, Label: "Pendiente", ColorTag: "gray"}
	statusLate      = StatusInfo{Status: StatusLate, Label: "Tarde", ColorTag: "yellow"}
	statusSubmitted = StatusInfo{Status: StatusSubmitted, Label: "Entregado", ColorTag: "green"}
	statusReturned  = StatusInfo{Status: StatusReturned, Label: "Calificado", ColorTag: "blue"}
	statusCreated   = StatusInfo{Status: StatusCreated, Label: "Borrador", ColorTag: "orange"}
)

// EnrichedStudent is a roster entry joined with its submission, if any.
type EnrichedStudent struct {
	Student
	Submission *Submission `json:"submission,omitempty"`
}

// JoinSubmissions attaches to every student (in roster order) the submission with the same UserID.
// When several submissions share a UserID the last one wins; submissions without a student are ignored.
// Inputs are never modified: joined submissions are copies.
func JoinSubmissions(students []Student, submissions []Submission) []EnrichedStudent {
	byUser := make(map[string]*Submission, len(submissions))
	for i := range submissions {
		sub := submissions[i]
		byUser[sub.UserID] = &sub
	}

	joined := make([]EnrichedStudent, 0, len(students))
	for _, st := range students {
		joined = append(joined, EnrichedStudent{Student: st, Submission: byUser[st.UserID]})
	}
	return joined
}

// ClassifyStatus returns the display status of a submission; first match wins:
// none -> MISSING, turned in late -> LATE, turned in -> SUBMITTED, returned -> RETURNED, anything else -> CREATED.
//
// dueDate is not consulted: lateness comes only from the upstream Late flag.
func ClassifyStatus(sub *Submission, dueDate *Date) StatusInfo {
	if sub == nil {
		return statusMissing
	}
	switch sub.State {
	case StateTurnedIn:
		if sub.Late {
			return statusLate
		}
		return statusSubmitted
	case StateReturned:
		return statusReturned
	case StateNew, StateCreated, StateReclaimedByStudent, StateUnspecified:
		return statusCreated
	}
	return statusCreated
}

// Summary counts for a course-work item.
// Late is counted independently of the state, so it overlaps Submitted and Pending.
type Summary struct {
	Total     int `json:"total"`
	Submitted int `json:"submitted"`
	Late      int `json:"late"`
	Pending   int `json:"pending"`
}

func Summarize(students []EnrichedStudent) Summary {
	s := Summary{Total: len(students)}
	for _, st := range students {
		if st.Submission == nil {
			continue
		}
		if st.Submission.State.Delivered() {
			s.Submitted++
		}
		if st.Submission.Late {
			s.Late++
		}
	}
	s.Pending = s.Total - s.Submitted
	return s
}

const defaultMaxPoints = 100

// GradeLabel renders "grade/maxPoints" (maxPoints defaults to 100) or "Sin calificar" when ungraded.
func GradeLabel(sub *Submission, work CourseWork) string {
	if sub == nil || sub.AssignedGrade == nil {
		return "Sin calificar"
	}
	max := float64(defaultMaxPoints)
	if work.MaxPoints != nil && *work.MaxPoints != 0 {
		max = *work.MaxPoints
	}
	return formatPoints(*sub.AssignedGrade) + "/" + formatPoints(max)
}

func formatPoints(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
