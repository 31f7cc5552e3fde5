package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/prestamos-sa/prestamos/database"
	"github.com/prestamos-sa/prestamos/database/model"
	"github.com/prestamos-sa/prestamos/web/entity"
)

type LoanService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLoanService(db *gorm.DB) *LoanService {
	return &LoanService{db: db, now: utcNow}
}

func (s *LoanService) ListLoans(ctx context.Context, filter entity.LoanFilter) ([]model.Loan, error) {
	q := s.db.WithContext(ctx).Model(&model.Loan{})
	if filter.UserId > 0 {
		q = q.Where("user_id = ?", filter.UserId)
	}
	if filter.MaterialId > 0 {
		q = q.Where("material_id = ?", filter.MaterialId)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	loans := make([]model.Loan, 0, filter.Limit)
	err := q.Order("id ASC").
		Offset(filter.Skip).
		Limit(filter.Limit).
		Find(&loans).
		Error
	return loans, err
}

func (s *LoanService) GetLoan(ctx context.Context, id int) (*model.Loan, error) {
	loan := &model.Loan{}
	err := s.db.WithContext(ctx).First(loan, id).Error
	if database.IsNotFound(err) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return loan, nil
}

// CreateLoan lends a material to a user. Both must exist and the material
// must have a copy that is not lent out.
func (s *LoanService) CreateLoan(ctx context.Context, req entity.LoanCreate) (*model.Loan, error) {
	loanedAt := s.now()
	if req.LoanedAt != nil {
		loanedAt = req.LoanedAt.UTC()
	}
	dueAt := req.DueAt.UTC()
	if !dueAt.After(loanedAt) {
		return nil, fmt.Errorf("%w: dueAt must be after loanedAt", ErrInvalid)
	}

	loan := &model.Loan{
		UserId:     req.UserId,
		MaterialId: req.MaterialId,
		LoanedAt:   loanedAt,
		DueAt:      dueAt,
		Status:     statusAt(dueAt, nil, s.now()),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users int64
		if err := tx.Model(&model.User{}).Where("id = ?", req.UserId).Count(&users).Error; err != nil {
			return err
		}
		if users == 0 {
			return fmt.Errorf("%w: user %d", ErrNotFound, req.UserId)
		}

		material := &model.Material{}
		if err := tx.First(material, req.MaterialId).Error; err != nil {
			if database.IsNotFound(err) {
				return fmt.Errorf("%w: material %d", ErrNotFound, req.MaterialId)
			}
			return err
		}
		open, err := countOpenLoans(tx, material.Id)
		if err != nil {
			return err
		}
		if open >= int64(material.Quantity) {
			return fmt.Errorf("%w: material %d is not available", ErrConflict, material.Id)
		}

		if err := tx.Create(loan).Error; err != nil {
			if database.IsForeignKeyViolation(err) {
				return ErrNotFound
			}
			return err
		}
		return refreshAvailability(tx, material.Id)
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// UpdateLoan changes the due date and/or records a return; the status is
// recomputed from the result.
func (s *LoanService) UpdateLoan(ctx context.Context, id int, req entity.LoanUpdate) (*model.Loan, error) {
	loan := &model.Loan{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(loan, id).Error; err != nil {
			if database.IsNotFound(err) {
				return ErrNotFound
			}
			return err
		}
		wasOpen := loan.IsOpen()

		if req.DueAt != nil {
			if !req.DueAt.After(loan.LoanedAt) {
				return fmt.Errorf("%w: dueAt must be after loanedAt", ErrInvalid)
			}
			loan.DueAt = req.DueAt.UTC()
		}
		if req.ReturnedAt != nil {
			if req.ReturnedAt.Before(loan.LoanedAt) {
				return fmt.Errorf("%w: returnedAt must not be before loanedAt", ErrInvalid)
			}
			returnedAt := req.ReturnedAt.UTC()
			loan.ReturnedAt = &returnedAt
		}
		loan.Status = statusAt(loan.DueAt, loan.ReturnedAt, s.now())

		if err := tx.Save(loan).Error; err != nil {
			return err
		}
		if wasOpen != loan.IsOpen() {
			return refreshAvailability(tx, loan.MaterialId)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ReturnLoan marks an open loan as returned now.
func (s *LoanService) ReturnLoan(ctx context.Context, id int) (*model.Loan, error) {
	loan, err := s.GetLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	if !loan.IsOpen() {
		return nil, fmt.Errorf("%w: loan %d was already returned", ErrConflict, id)
	}
	now := s.now()
	if now.Before(loan.LoanedAt) {
		now = loan.LoanedAt
	}
	return s.UpdateLoan(ctx, id, entity.LoanUpdate{ReturnedAt: &now})
}

func (s *LoanService) DeleteLoan(ctx context.Context, id int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loan := &model.Loan{}
		if err := tx.First(loan, id).Error; err != nil {
			if database.IsNotFound(err) {
				return ErrNotFound
			}
			return err
		}
		result := tx.Delete(&model.Loan{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return refreshAvailability(tx, loan.MaterialId)
	})
}

// MarkOverdue flags every active loan whose due date is before now and
// returns how many rows changed.
func (s *LoanService) MarkOverdue(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.Loan{}).
		Where("status = ? AND returned_at IS NULL AND due_at < ?", model.LoanActive, s.now()).
		Update("status", model.LoanOverdue)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func statusAt(dueAt time.Time, returnedAt *time.Time, now time.Time) model.LoanStatus {
	switch {
	case returnedAt != nil:
		return model.LoanReturned
	case dueAt.Before(now):
		return model.LoanOverdue
	default:
		return model.LoanActive
	}
}
