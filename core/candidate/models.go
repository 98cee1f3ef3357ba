package candidate

import (
	"net/url"
	"strconv"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/olympia/core"
)

// Levels
const (
	LevelPrimary    = "primary"
	LevelMiddle     = "middle"
	LevelHigh       = "high"
	LevelUniversity = "university"
)

// Registration statuses, set by the backend.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var (
	AllLevels = []string{LevelPrimary, LevelMiddle, LevelHigh, LevelUniversity}

	Levels = []Level{
		{Name: "Primary School", Value: LevelPrimary},
		{Name: "Middle School", Value: LevelMiddle},
		{Name: "High School", Value: LevelHigh},
		{Name: "University", Value: LevelUniversity},
	}
)

type Level struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Candidate struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	BirthDate string    `json:"birthDate"` // YYYY-MM-DD
	School    string    `json:"school"`
	Level     string    `json:"level"`
	Status    string    `json:"status"`
	PhotoURL  string    `json:"photoUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

func (c Candidate) FullName() string {
	return core.CleanString(c.FirstName + " " + c.LastName)
}

func (c Candidate) IsApproved() bool { return c.Status == StatusApproved }

// NewCandidate contains information needed to register a new Candidate.
type NewCandidate struct {
	FirstName       string `json:"firstName" validate:"notblank"`
	LastName        string `json:"lastName" validate:"notblank"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,e164"`
	BirthDate       string `json:"birthDate" validate:"required,birthdate"`
	School          string `json:"school" validate:"notblank"`
	Level           string `json:"level" validate:"required,level"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (nc *NewCandidate) Clean() {
	nc.FirstName = core.CleanString(nc.FirstName)
	nc.LastName = core.CleanString(nc.LastName)
	nc.Email = core.CleanString(nc.Email, true /* lower */)
	nc.Phone = core.CleanString(nc.Phone)
	nc.BirthDate = core.CleanString(nc.BirthDate)
	nc.School = core.CleanString(nc.School)
	nc.Level = core.CleanString(nc.Level, true /* lower */)
}

func (nc *NewCandidate) Validate(validate *validator.Validate, translator ut.Translator) error {
	nc.Clean()
	return core.ValidateStruct(validate, translator, nc)
}

// UpdateCandidate defines what information may be provided to modify an existing Candidate.
// Empty fields are left unchanged.
type UpdateCandidate struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,e164"`
	School    string `json:"school,omitempty"`
	Level     string `json:"level,omitempty" validate:"omitempty,level"`
}

func (uc *UpdateCandidate) Validate(validate *validator.Validate, translator ut.Translator) error {
	uc.FirstName = core.CleanString(uc.FirstName)
	uc.LastName = core.CleanString(uc.LastName)
	uc.Phone = core.CleanString(uc.Phone)
	uc.School = core.CleanString(uc.School)
	uc.Level = core.CleanString(uc.Level, true /* lower */)
	return core.ValidateStruct(validate, translator, uc)
}

type QueryFilter struct {
	Search      string
	Levels      []string
	Status      string
	School      string
	CreatedFrom time.Time
	CreatedTo   time.Time
	Orderings   []core.Ordering
	Page        int
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Levels == nil && qf.Status == "" && qf.School == "" &&
		qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

// Values renders the filter as query parameters, in wire format.
func (qf *QueryFilter) Values() url.Values {
	v := make(url.Values)
	if s := core.CleanString(qf.Search); s != "" {
		v.Set("search", s)
	}
	for _, lvl := range qf.Levels {
		v.Add("level", lvl)
	}
	if qf.Status != "" {
		v.Set("status", qf.Status)
	}
	if s := core.CleanString(qf.School); s != "" {
		v.Set("school", s)
	}
	if !qf.CreatedFrom.IsZero() {
		v.Set("created_from", qf.CreatedFrom.UTC().Format(time.RFC3339))
	}
	if !qf.CreatedTo.IsZero() {
		v.Set("created_to", qf.CreatedTo.UTC().Format(time.RFC3339))
	}
	if len(qf.Orderings) > 0 {
		v.Set(core.OrderingParam, core.JoinOrderings(qf.Orderings))
	}
	if qf.Page > 0 {
		v.Set("page", strconv.Itoa(qf.Page))
	}
	return v
}

// Page is a page of candidates as returned by the list endpoint.
type Page struct {
	Count    int         `json:"count"`
	Next     string      `json:"next,omitempty"`
	Previous string      `json:"previous,omitempty"`
	Results  []Candidate `json:"results"`
}
