package repo

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shops_api/internal/apperr"
)

type GormRepo struct {
	DB *gorm.DB
}

func writeErr(err error, what string) error {
	if apperr.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s already exists", apperr.ErrConflict, what)
	}
	return fmt.Errorf("%w: save %s: %v", apperr.ErrPersistence, what, err)
}

func readErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, what)
	}
	return fmt.Errorf("%w: load %s: %v", apperr.ErrPersistence, what, err)
}
