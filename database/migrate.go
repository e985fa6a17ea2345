package database

import (
	"fmt"

	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the terminal uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Cashier{},
		&models.Table{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.PrintJob{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}

// SeedOptions controls the initial data written into an empty database.
type SeedOptions struct {
	ManagerUsername string
	ManagerPIN      string
	Tables          int
}

// Seed fills an empty database with a manager account, a floor plan and
// a small menu. It does nothing once any cashier exists.
func Seed(db *gorm.DB, opts SeedOptions) error {
	var count int64
	if err := db.Model(&models.Cashier{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count cashiers: %w", err)
	}
	if count > 0 {
		return nil
	}
	if opts.ManagerUsername == "" {
		opts.ManagerUsername = "manager"
	}
	if opts.ManagerPIN == "" {
		opts.ManagerPIN = "1234"
	}
	if opts.Tables <= 0 {
		opts.Tables = 10
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.ManagerPIN), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash manager pin: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		manager := models.Cashier{
			Name:     "Quản lý",
			Username: opts.ManagerUsername,
			PINHash:  string(hash),
			Role:     models.RoleManager,
		}
		if err := tx.Create(&manager).Error; err != nil {
			return err
		}

		for i := 1; i <= opts.Tables; i++ {
			table := models.Table{Name: fmt.Sprintf("Bàn %d", i), Status: models.TableStatusAvailable}
			if err := tx.Create(&table).Error; err != nil {
				return err
			}
		}

		coffee := models.Category{Name: "Cà phê"}
		tea := models.Category{Name: "Trà"}
		if err := tx.Create(&coffee).Error; err != nil {
			return err
		}
		if err := tx.Create(&tea).Error; err != nil {
			return err
		}

		menu := []models.Product{
			{CategoryID: &coffee.ID, Name: "Cà phê đen", Price: 25000, Available: true},
			{CategoryID: &coffee.ID, Name: "Cà phê sữa", Price: 30000, Available: true},
			{CategoryID: &coffee.ID, Name: "Bạc xỉu", Price: 35000, Available: true},
			{CategoryID: &tea.ID, Name: "Trà đào", Price: 45000, Available: true},
			{CategoryID: &tea.ID, Name: "Trà sen vàng", Price: 50000, Available: true},
		}
		if err := tx.Create(&menu).Error; err != nil {
			return err
		}

		utils.InfoLogger.Printf("Seeded %d tables, %d products and manager %q", opts.Tables, len(menu), opts.ManagerUsername)
		return nil
	})
}
