package service

import (
	"context"
	"testing"
	"time"

	"github.com/prestamos-sa/prestamos/database/model"
	"github.com/prestamos-sa/prestamos/web/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type loanFixture struct {
	db       *gorm.DB
	loans    *LoanService
	user     *model.User
	material *model.Material
	now      time.Time
}

func newLoanFixture(t *testing.T) *loanFixture {
	t.Helper()
	db := newTestDB(t)
	f := &loanFixture{
		db:       db,
		loans:    NewLoanService(db),
		user:     mustCreateUser(t, db, "ana", "ana@example.com", "", "secret-ana"),
		material: mustCreateMaterial(t, db, "Projector", 1),
		now:      time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
	}
	f.loans.now = fixedClock(f.now)
	return f
}

func (f *loanFixture) lend(t *testing.T, dueIn time.Duration) *model.Loan {
	t.Helper()
	loan, err := f.loans.CreateLoan(context.Background(), entity.LoanCreate{
		UserId:     f.user.Id,
		MaterialId: f.material.Id,
		DueAt:      f.now.Add(dueIn),
	})
	require.NoError(t, err)
	return loan
}

func (f *loanFixture) available(t *testing.T) bool {
	t.Helper()
	m, err := NewMaterialService(f.db).GetMaterial(context.Background(), f.material.Id)
	require.NoError(t, err)
	return m.Available
}

func TestCreateLoan(t *testing.T) {
	f := newLoanFixture(t)

	loan := f.lend(t, 48*time.Hour)
	assert.Equal(t, model.LoanActive, loan.Status)
	assert.True(t, loan.LoanedAt.Equal(f.now))
	assert.Nil(t, loan.ReturnedAt)
	assert.False(t, f.available(t))

	_, err := f.loans.CreateLoan(context.Background(), entity.LoanCreate{
		UserId: f.user.Id, MaterialId: f.material.Id, DueAt: f.now.Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateLoanMissingReferences(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	_, err := f.loans.CreateLoan(ctx, entity.LoanCreate{UserId: 999, MaterialId: f.material.Id, DueAt: f.now.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "user 999")

	_, err = f.loans.CreateLoan(ctx, entity.LoanCreate{UserId: f.user.Id, MaterialId: 999, DueAt: f.now.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "material 999")

	_, err = f.loans.CreateLoan(ctx, entity.LoanCreate{UserId: f.user.Id, MaterialId: f.material.Id, DueAt: f.now.Add(-time.Hour)})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestReturnLoan(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()
	loan := f.lend(t, 24*time.Hour)

	f.loans.now = fixedClock(f.now.Add(2 * time.Hour))
	returned, err := f.loans.ReturnLoan(ctx, loan.Id)
	require.NoError(t, err)
	assert.Equal(t, model.LoanReturned, returned.Status)
	require.NotNil(t, returned.ReturnedAt)
	assert.True(t, returned.ReturnedAt.Equal(f.now.Add(2*time.Hour)))
	assert.True(t, f.available(t))

	_, err = f.loans.ReturnLoan(ctx, loan.Id)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.loans.ReturnLoan(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateLoanDueDate(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()
	loan := f.lend(t, time.Hour)

	due := f.now.Add(72 * time.Hour)
	updated, err := f.loans.UpdateLoan(ctx, loan.Id, entity.LoanUpdate{DueAt: &due})
	require.NoError(t, err)
	assert.True(t, updated.DueAt.Equal(due))
	assert.Equal(t, model.LoanActive, updated.Status)

	before := f.now.Add(-time.Hour)
	_, err = f.loans.UpdateLoan(ctx, loan.Id, entity.LoanUpdate{DueAt: &before})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = f.loans.UpdateLoan(ctx, 999, entity.LoanUpdate{DueAt: &due})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListLoansFilters(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()
	first := f.lend(t, time.Hour)
	_, err := f.loans.ReturnLoan(ctx, first.Id)
	require.NoError(t, err)
	f.lend(t, time.Hour)

	all, err := f.loans.ListLoans(ctx, entity.LoanFilter{Page: entity.Page{Limit: 10}})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := f.loans.ListLoans(ctx, entity.LoanFilter{Page: entity.Page{Limit: 10}, Status: string(model.LoanActive)})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.NotEqual(t, first.Id, active[0].Id)

	none, err := f.loans.ListLoans(ctx, entity.LoanFilter{Page: entity.Page{Limit: 10}, UserId: f.user.Id + 1})
	require.NoError(t, err)
	assert.Empty(t, none)

	byMaterial, err := f.loans.ListLoans(ctx, entity.LoanFilter{Page: entity.Page{Limit: 10}, MaterialId: f.material.Id})
	require.NoError(t, err)
	assert.Len(t, byMaterial, 2)
}

func TestMarkOverdue(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()
	loan := f.lend(t, time.Hour)

	n, err := f.loans.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.loans.now = fixedClock(f.now.Add(2 * time.Hour))
	n, err = f.loans.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	stored, err := f.loans.GetLoan(ctx, loan.Id)
	require.NoError(t, err)
	assert.Equal(t, model.LoanOverdue, stored.Status)

	n, err = f.loans.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	returned, err := f.loans.ReturnLoan(ctx, loan.Id)
	require.NoError(t, err)
	assert.Equal(t, model.LoanReturned, returned.Status)
}

func TestDeleteLoanFreesMaterial(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()
	loan := f.lend(t, time.Hour)
	assert.False(t, f.available(t))

	require.NoError(t, f.loans.DeleteLoan(ctx, loan.Id))
	assert.True(t, f.available(t))
	assert.ErrorIs(t, f.loans.DeleteLoan(ctx, loan.Id), ErrNotFound)
}

func TestStatusAt(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	returned := now

	assert.Equal(t, model.LoanActive, statusAt(now.Add(time.Hour), nil, now))
	assert.Equal(t, model.LoanOverdue, statusAt(now.Add(-time.Hour), nil, now))
	assert.Equal(t, model.LoanReturned, statusAt(now.Add(-time.Hour), &returned, now))
}
