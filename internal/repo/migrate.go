package repo

import (
	"gorm.io/gorm"

	"go-sales-tracker/internal/feature/sale"
	"go-sales-tracker/internal/feature/user"
)

// AutoMigrate users 必须先于 sales（外键）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&user.UserModel{}, &sale.SaleModel{})
}
