package student

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/user"
)

var (
	ErrNotFound  = errors.New("student not found")
	ErrNISExists = errors.New("a student with this NIS already exists")
	ErrForbidden = errors.New("you are not allowed to manage students of this barak")
)

type (
	Repository interface {
		// CheckNISUniqueness returns ErrNISExists if another student than excludedID holds nis.
		CheckNISUniqueness(ctx context.Context, nis string, excludedID ...string) error
		ListStudents(ctx context.Context, filter QueryFilter) ([]Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		CreateStudent(ctx context.Context, s Student) (Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error
	}

	Service interface {
		List(ctx context.Context, filter QueryFilter) ([]Student, error)
		GetByID(ctx context.Context, id string) (Student, error)
		Create(ctx context.Context, ns NewStudent) (Student, error)
		// Update and Delete return ErrForbidden unless user.CanAccess allows actor on the student's
		// barak, and on the new barak when the student moves.
		Update(ctx context.Context, actor user.User, id string, us UpdateStudent) (Student, error)
		Delete(ctx context.Context, actor user.User, id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) checkNISUniqueness(ctx context.Context, nis string, excludedID ...string) error {
	if err := svc.repo.CheckNISUniqueness(ctx, nis, excludedID...); err != nil {
		if err == ErrNISExists {
			return core.NewValidationError(err, core.FieldError{Field: "nis", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) List(ctx context.Context, filter QueryFilter) ([]Student, error) {
	filter.Clean()
	return svc.repo.ListStudents(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

// Create expects ns to be validated.
func (svc *service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if err := svc.checkNISUniqueness(ctx, ns.NIS); err != nil {
		return Student{}, err
	}
	now := core.NowFunc().UTC()
	return svc.repo.CreateStudent(ctx, Student{
		ID:        uuid.New().String(),
		NIS:       ns.NIS,
		Name:      ns.Name,
		ClassID:   ns.ClassID,
		Barak:     ns.Barak,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Update expects us to be validated against the current Student.
func (svc *service) Update(ctx context.Context, actor user.User, id string, us UpdateStudent) (Student, error) {
	s, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if !user.CanAccess(actor, s.Barak) {
		return Student{}, ErrForbidden
	}
	if us.Barak != nil && *us.Barak != s.Barak && !user.CanAccess(actor, *us.Barak) {
		return Student{}, ErrForbidden
	}
	if err = svc.checkNISUniqueness(ctx, us.NIS, id); err != nil {
		return Student{}, err
	}

	s.NIS = us.NIS
	s.Name = us.Name
	if us.ClassID != nil {
		s.ClassID = *us.ClassID
	}
	if us.Barak != nil {
		s.Barak = *us.Barak
	}
	s.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateStudent(ctx, s)
}

func (svc *service) Delete(ctx context.Context, actor user.User, id string) error {
	s, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return err
	}
	if !user.CanAccess(actor, s.Barak) {
		return ErrForbidden
	}
	return svc.repo.DeleteStudent(ctx, id)
}
