package intra

type Image struct {
	Link string `json:"link"`
}

// Student is one row of the users collection.
type Student struct {
	ID              int    `json:"id"`
	Login           string `json:"login"`
	Email           string `json:"email"`
	DisplayName     string `json:"displayname"`
	Phone           string `json:"phone"`
	Location        string `json:"location"`
	Wallet          int    `json:"wallet"`
	CorrectionPoint int    `json:"correction_point"`
	Image           Image  `json:"image"`
}

type Project struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProjectUser is a student's registration to a project.
type ProjectUser struct {
	ID        int     `json:"id"`
	Status    string  `json:"status"`
	FinalMark *int    `json:"final_mark"`
	Validated *bool   `json:"validated?"`
	CursusIDs []int   `json:"cursus_ids"`
	Project   Project `json:"project"`
}

type Skill struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Level float64 `json:"level"`
}

// CursusUser is a student's enrollment in a cursus. Level and CursusID are
// per enrollment, Skills is nested.
type CursusUser struct {
	ID       int     `json:"id"`
	Grade    string  `json:"grade"`
	Level    float64 `json:"level"`
	CursusID int     `json:"cursus_id"`
	Skills   []Skill `json:"skills"`
}

// RateLimit is what the response headers said about the current one-second
// window. Known is false when the header was absent or unparsable.
type RateLimit struct {
	Remaining int
	Known     bool
}

// Page is one page of a paginated collection.
type Page[T any] struct {
	Number    int
	Items     []T
	RateLimit RateLimit
}
