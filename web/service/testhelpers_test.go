package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prestamos-sa/prestamos/config"
	"github.com/prestamos-sa/prestamos/database"
	"github.com/prestamos-sa/prestamos/database/model"
	"github.com/prestamos-sa/prestamos/web/entity"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "prestamos_test_jwt_secret_key_0123456789"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Type: config.DatabaseTypeSQLite,
		Path: filepath.Join(t.TempDir(), "service.db"),
	}
	db, err := database.Open(cfg, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func mustCreateUser(t *testing.T, db *gorm.DB, username, email, phone, password string) *model.User {
	t.Helper()
	user, err := NewUserService(db).CreateUser(context.Background(), entity.UserCreate{
		Username: username,
		Email:    email,
		Phone:    phone,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

func mustCreateMaterial(t *testing.T, db *gorm.DB, name string, quantity int) *model.Material {
	t.Helper()
	material, err := NewMaterialService(db).CreateMaterial(context.Background(), entity.MaterialCreate{
		Name:     name,
		Quantity: &quantity,
	})
	require.NoError(t, err)
	return material
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
