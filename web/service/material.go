package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/prestamos-sa/prestamos/database"
	"github.com/prestamos-sa/prestamos/database/model"
	"github.com/prestamos-sa/prestamos/web/entity"
)

type MaterialService struct {
	db *gorm.DB
}

func NewMaterialService(db *gorm.DB) *MaterialService {
	return &MaterialService{db: db}
}

func (s *MaterialService) ListMaterials(ctx context.Context, page entity.Page) ([]model.Material, error) {
	materials := make([]model.Material, 0, page.Limit)
	err := s.db.WithContext(ctx).
		Order("id ASC").
		Offset(page.Skip).
		Limit(page.Limit).
		Find(&materials).
		Error
	return materials, err
}

func (s *MaterialService) GetMaterial(ctx context.Context, id int) (*model.Material, error) {
	material := &model.Material{}
	err := s.db.WithContext(ctx).First(material, id).Error
	if database.IsNotFound(err) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return material, nil
}

func (s *MaterialService) CreateMaterial(ctx context.Context, req entity.MaterialCreate) (*model.Material, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name can not be empty", ErrInvalid)
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	material := &model.Material{
		Name:        name,
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		Quantity:    quantity,
		Available:   quantity > 0,
	}
	// Select keeps gorm from replacing a false Available with the column default.
	err := s.db.WithContext(ctx).
		Select("Name", "Description", "Category", "Quantity", "Available", "CreatedAt", "UpdatedAt").
		Create(material).
		Error
	if err != nil {
		return nil, err
	}
	return material, nil
}

// UpdateMaterial applies the non-nil fields of req. Lowering the quantity
// below the number of open loans is rejected.
func (s *MaterialService) UpdateMaterial(ctx context.Context, id int, req entity.MaterialUpdate) (*model.Material, error) {
	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name can not be empty", ErrInvalid)
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = strings.TrimSpace(*req.Category)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		material := &model.Material{}
		if err := tx.First(material, id).Error; err != nil {
			if database.IsNotFound(err) {
				return ErrNotFound
			}
			return err
		}
		if req.Quantity != nil {
			open, err := countOpenLoans(tx, id)
			if err != nil {
				return err
			}
			if int64(*req.Quantity) < open {
				return fmt.Errorf("%w: %d copies are currently lent out", ErrConflict, open)
			}
			updates["quantity"] = *req.Quantity
			updates["available"] = int64(*req.Quantity) > open
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(material).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetMaterial(ctx, id)
}

// DeleteMaterial hard-deletes the material together with its loans.
func (s *MaterialService) DeleteMaterial(ctx context.Context, id int) error {
	result := s.db.WithContext(ctx).Delete(&model.Material{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func countOpenLoans(tx *gorm.DB, materialID int) (int64, error) {
	var open int64
	err := tx.Model(&model.Loan{}).
		Where("material_id = ? AND returned_at IS NULL", materialID).
		Count(&open).
		Error
	return open, err
}

// refreshAvailability recomputes the available flag of a material from its
// quantity and open loans.
func refreshAvailability(tx *gorm.DB, materialID int) error {
	material := &model.Material{}
	if err := tx.First(material, materialID).Error; err != nil {
		return err
	}
	open, err := countOpenLoans(tx, materialID)
	if err != nil {
		return err
	}
	return tx.Model(material).Update("available", int64(material.Quantity) > open).Error
}
