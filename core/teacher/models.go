package teacher

import (
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/trezcool/absensi/core"
)

// UnknownName is displayed in place of a teacher that cannot be resolved.
const UnknownName = "Unknown"

type Teacher struct {
	ID        string    `json:"id" firestore:"-"`
	Name      string    `json:"name" firestore:"name"`
	Code      string    `json:"code" firestore:"code"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" firestore:"updated_at"` // UTC
}

// Names maps teacher IDs to their display names.
type Names map[string]string

// NamesOf indexes the names of the given teachers by ID.
func NamesOf(teachers []Teacher) Names {
	names := make(Names, len(teachers))
	for _, t := range teachers {
		names[t.ID] = t.Name
	}
	return names
}

// Get returns the teacher name or UnknownName.
func (n Names) Get(id string) string {
	if name, ok := n[id]; ok && name != "" {
		return name
	}
	return UnknownName
}

// NewTeacher contains information needed to create a new Teacher.
type NewTeacher struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"required,max=10,alphanum_"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Code = cleanCode(nt.Code)
	return validate.Struct(nt)
}

// UpdateTeacher defines what information may be provided to modify an existing Teacher.
type UpdateTeacher struct {
	Name string `json:"name" validate:"omitempty,max=100"`
	Code string `json:"code" validate:"omitempty,max=10,alphanum_"`
}

func (ut *UpdateTeacher) Validate(orig Teacher, validate *validator.Validate) error {
	if name := core.CleanString(ut.Name); name != "" {
		ut.Name = name
	} else {
		ut.Name = orig.Name
	}
	if code := cleanCode(ut.Code); code != "" {
		ut.Code = code
	} else {
		ut.Code = orig.Code
	}
	return validate.Struct(ut)
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Match does a case-insensitive match of Search on the teacher's name or code.
func (qf QueryFilter) Match(t Teacher) bool {
	if qf.Search == "" {
		return true
	}
	s := strings.ToLower(qf.Search)
	return strings.Contains(strings.ToLower(t.Name), s) || strings.Contains(strings.ToLower(t.Code), s)
}

// SortByName orders teachers by name (case-insensitive Indonesian collation), then code.
func SortByName(teachers []Teacher) {
	col := collate.New(language.Indonesian, collate.IgnoreCase)
	sort.SliceStable(teachers, func(i, j int) bool {
		if c := col.CompareString(teachers[i].Name, teachers[j].Name); c != 0 {
			return c < 0
		}
		return teachers[i].Code < teachers[j].Code
	})
}

func cleanCode(code string) string {
	return strings.ToUpper(core.CleanString(code))
}

// SortTeachers applies the name, code and created_at orderings.
func SortTeachers(teachers []Teacher, ordering ...core.DBOrdering) {
	sort.SliceStable(teachers, func(i, j int) bool {
		for _, ord := range ordering {
			var c int
			switch ord.Field {
			case "name":
				c = strings.Compare(strings.ToLower(teachers[i].Name), strings.ToLower(teachers[j].Name))
			case "code":
				c = strings.Compare(teachers[i].Code, teachers[j].Code)
			case "created_at":
				c = teachers[i].CreatedAt.Compare(teachers[j].CreatedAt)
			}
			if c != 0 {
				return (c < 0) == ord.Ascending
			}
		}
		return teachers[i].ID < teachers[j].ID
	})
}
