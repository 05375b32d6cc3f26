package teacher

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/trezcool/absensi/core"
)

var (
	ErrNotFound   = errors.New("teacher not found")
	ErrCodeExists = errors.New("a teacher with this code already exists")
)

type (
	Repository interface {
		// CheckCodeUniqueness returns ErrCodeExists if another teacher than excludedID holds code.
		CheckCodeUniqueness(ctx context.Context, code string, excludedID ...string) error
		ListTeachers(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Teacher, error)
		GetTeacher(ctx context.Context, id string) (Teacher, error)
		GetTeacherByCode(ctx context.Context, code string) (Teacher, error)
		CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		UpdateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		DeleteTeacher(ctx context.Context, id string) error
		// Subscribe calls fn with the current teachers, then again after every change,
		// until the returned func is called or ctx is done.
		Subscribe(ctx context.Context, fn func([]Teacher)) (func(), error)
	}

	Service interface {
		CheckCodeUniqueness(ctx context.Context, code string, excludedID ...string) error
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Teacher, error)
		GetByID(ctx context.Context, id string) (Teacher, error)
		GetByCode(ctx context.Context, code string) (Teacher, error)
		Names(ctx context.Context) (Names, error)
		Create(ctx context.Context, nt NewTeacher) (Teacher, error)
		Update(ctx context.Context, id string, ut UpdateTeacher) (Teacher, error)
		Delete(ctx context.Context, id string) error
		Subscribe(ctx context.Context, fn func([]Teacher)) (func(), error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckCodeUniqueness(ctx context.Context, code string, excludedID ...string) error {
	if err := svc.repo.CheckCodeUniqueness(ctx, cleanCode(code), excludedID...); err != nil {
		if err == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Query sorts the teachers by name unless an ordering is given.
func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Teacher, error) {
	filter.Clean()
	teachers, err := svc.repo.ListTeachers(ctx, filter, ordering...)
	if err != nil {
		return nil, err
	}
	if len(ordering) == 0 {
		SortByName(teachers)
	}
	return teachers, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, id)
}

func (svc *service) GetByCode(ctx context.Context, code string) (Teacher, error) {
	return svc.repo.GetTeacherByCode(ctx, cleanCode(code))
}

func (svc *service) Names(ctx context.Context) (Names, error) {
	teachers, err := svc.repo.ListTeachers(ctx, QueryFilter{})
	if err != nil {
		return nil, err
	}
	return NamesOf(teachers), nil
}

// Create expects nt to be validated.
func (svc *service) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	if err := svc.CheckCodeUniqueness(ctx, nt.Code); err != nil {
		return Teacher{}, err
	}
	now := core.NowFunc().UTC()
	return svc.repo.CreateTeacher(ctx, Teacher{
		ID:        uuid.New().String(),
		Name:      nt.Name,
		Code:      cleanCode(nt.Code),
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Update expects ut to be validated against the current Teacher.
func (svc *service) Update(ctx context.Context, id string, ut UpdateTeacher) (Teacher, error) {
	orig, err := svc.repo.GetTeacher(ctx, id)
	if err != nil {
		return Teacher{}, err
	}
	if err = svc.CheckCodeUniqueness(ctx, ut.Code, id); err != nil {
		return Teacher{}, err
	}
	orig.Name = ut.Name
	orig.Code = cleanCode(ut.Code)
	orig.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateTeacher(ctx, orig)
}

// Delete does not cascade: roster entries keep pointing to the deleted teacher.
func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteTeacher(ctx, id)
}

func (svc *service) Subscribe(ctx context.Context, fn func([]Teacher)) (func(), error) {
	return svc.repo.Subscribe(ctx, fn)
}
