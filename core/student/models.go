package student

import (
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/absensi/core"
)

type Student struct {
	ID      string `json:"id" firestore:"-"`
	NIS     string `json:"nis" firestore:"nis"`
	Name    string `json:"name" firestore:"name"`
	ClassID string `json:"class_id" firestore:"class_id"`
	// Barak is the dormitory group owning the student.
	Barak     string    `json:"barak" firestore:"barak"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" firestore:"updated_at"` // UTC
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	NIS     string `json:"nis" validate:"required,numeric,max=20"`
	Name    string `json:"name" validate:"required,max=100"`
	ClassID string `json:"class_id" validate:"omitempty,max=20"`
	Barak   string `json:"barak" validate:"omitempty,max=50"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.NIS = core.CleanString(ns.NIS)
	ns.Name = core.CleanString(ns.Name)
	ns.ClassID = core.CleanString(ns.ClassID)
	ns.Barak = core.CleanString(ns.Barak)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Nil fields keep their current value; an empty Barak detaches the student from its dormitory.
type UpdateStudent struct {
	NIS     string  `json:"nis" validate:"omitempty,numeric,max=20"`
	Name    string  `json:"name" validate:"omitempty,max=100"`
	ClassID *string `json:"class_id" validate:"omitempty,max=20"`
	Barak   *string `json:"barak" validate:"omitempty,max=50"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate) error {
	if nis := core.CleanString(us.NIS); nis != "" {
		us.NIS = nis
	} else {
		us.NIS = orig.NIS
	}
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	us.ClassID = cleanOr(us.ClassID, orig.ClassID)
	us.Barak = cleanOr(us.Barak, orig.Barak)
	return validate.Struct(us)
}

type QueryFilter struct {
	Barak   string `query:"barak"`
	ClassID string `query:"class_id"`
	Search  string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Barak = core.CleanString(qf.Barak)
	qf.ClassID = core.CleanString(qf.ClassID)
	qf.Search = core.CleanString(qf.Search)
}

// Match applies an AND on the set fields of qf.
// Search does a case-insensitive match on the name or the NIS.
func (qf QueryFilter) Match(s Student) bool {
	if qf.Barak != "" && s.Barak != qf.Barak {
		return false
	}
	if qf.ClassID != "" && s.ClassID != qf.ClassID {
		return false
	}
	if qf.Search != "" {
		search := strings.ToLower(qf.Search)
		return strings.Contains(strings.ToLower(s.Name), search) || strings.Contains(s.NIS, search)
	}
	return true
}

func cleanOr(s *string, def string) *string {
	if s == nil {
		return &def
	}
	cleaned := core.CleanString(*s)
	return &cleaned
}

// SortStudents orders students by class, then name.
func SortStudents(students []Student) {
	sort.Slice(students, func(i, j int) bool {
		if students[i].ClassID != students[j].ClassID {
			return students[i].ClassID < students[j].ClassID
		}
		if students[i].Name != students[j].Name {
			return students[i].Name < students[j].Name
		}
		return students[i].ID < students[j].ID
	})
}
