package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/prestamos-sa/prestamos/database"
	"github.com/prestamos-sa/prestamos/database/model"
	"github.com/prestamos-sa/prestamos/util/crypto"
	"github.com/prestamos-sa/prestamos/web/entity"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 72
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) ListUsers(ctx context.Context, page entity.Page) ([]model.User, error) {
	users := make([]model.User, 0, page.Limit)
	err := s.db.WithContext(ctx).
		Order("id ASC").
		Offset(page.Skip).
		Limit(page.Limit).
		Find(&users).
		Error
	return users, err
}

func (s *UserService) GetUser(ctx context.Context, id int) (*model.User, error) {
	user := &model.User{}
	err := s.db.WithContext(ctx).First(user, id).Error
	if database.IsNotFound(err) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser stores a new user; the password is hashed before the insert.
func (s *UserService) CreateUser(ctx context.Context, req entity.UserCreate) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username can not be empty", ErrInvalid)
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("%w: email can not be empty", ErrInvalid)
	}
	if err := checkPassword(req.Password); err != nil {
		return nil, err
	}
	hashedPassword, err := crypto.HashPasswordAsBcrypt(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    strings.TrimSpace(req.Phone),
		Password: hashedPassword,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, fmt.Errorf("%w: username or email already registered", ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser applies the non-nil fields of req. A new password is re-hashed.
func (s *UserService) UpdateUser(ctx context.Context, id int, req entity.UserUpdate) (*model.User, error) {
	updates := map[string]any{}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username can not be empty", ErrInvalid)
		}
		updates["username"] = username
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			return nil, fmt.Errorf("%w: email can not be empty", ErrInvalid)
		}
		updates["email"] = email
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Password != nil {
		if err := checkPassword(*req.Password); err != nil {
			return nil, err
		}
		hashedPassword, err := crypto.HashPasswordAsBcrypt(*req.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hashedPassword
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return user, nil
	}
	err = s.db.WithContext(ctx).Model(user).Updates(updates).Error
	if database.IsDuplicate(err) {
		return nil, fmt.Errorf("%w: username or email already registered", ErrConflict)
	} else if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// DeleteUser hard-deletes the user and, through the foreign key, their loans.
// Materials held by those loans become available again. Of several
// concurrent deletes of the same id exactly one succeeds.
func (s *UserService) DeleteUser(ctx context.Context, id int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var materialIDs []int
		err := tx.Model(&model.Loan{}).
			Where("user_id = ? AND returned_at IS NULL", id).
			Distinct().
			Pluck("material_id", &materialIDs).
			Error
		if err != nil {
			return err
		}

		result := tx.Delete(&model.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		for _, materialID := range materialIDs {
			if err := refreshAvailability(tx, materialID); err != nil {
				return err
			}
		}
		return nil
	})
}

// bcrypt ignores everything past 72 bytes.
func checkPassword(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return fmt.Errorf("%w: password must be %d to %d characters", ErrInvalid, minPasswordLen, maxPasswordLen)
	}
	return nil
}
