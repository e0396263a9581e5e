package scheduler

import (
	"context"

	"github.com/google/uuid"

	"github.com/swifty-companion/student-api/pkg/intra"
)

// Kind names the resource a request fetches.
type Kind int

const (
	KindStudent Kind = iota
	KindProjects
	KindSkills
)

func (k Kind) String() string {
	switch k {
	case KindStudent:
		return "student"
	case KindProjects:
		return "projects"
	case KindSkills:
		return "skills"
	default:
		return "unknown"
	}
}

// Skills is the flattened result of a skills fetch. Level and CursusID come
// from the first enrollment of the first page.
type Skills struct {
	Level    float64       `json:"level"`
	CursusID int           `json:"cursus_id"`
	Skills   []intra.Skill `json:"skills"`
}

// Profile aggregates everything known about one student.
type Profile struct {
	Student  intra.Student       `json:"student"`
	Projects []intra.ProjectUser `json:"projects"`
	Skills   Skills              `json:"skills"`
}

// request is a queued unit of work. Only the scheduler loop touches attempts.
type request struct {
	id        uuid.UUID
	kind      Kind
	parameter string
	attempts  int

	// ctx carries trace context from the submitter, never its cancellation.
	ctx context.Context

	run          func(ctx context.Context) error
	resolveEmpty func()
	reject       func(err error)
}

type outcome struct {
	req *request
	err error
}
