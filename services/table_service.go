package services

import (
	"context"

	"github.com/yeremiapane/cafe-pos/models"
	"gorm.io/gorm"
)

// TableService keeps the floor plan. Tables are occupied while an order
// is open on them and freed when it is paid or cancelled.
type TableService struct {
	db *gorm.DB
}

func NewTableService(db *gorm.DB) *TableService {
	return &TableService{db: db}
}

func (ts *TableService) List(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := ts.db.WithContext(ctx).Order("id asc").Find(&tables).Error; err != nil {
		return nil, mapDBError("list_tables", err, "tables not found")
	}
	return tables, nil
}

func (ts *TableService) Get(ctx context.Context, id uint) (models.Table, error) {
	var table models.Table
	if err := ts.db.WithContext(ctx).First(&table, id).Error; err != nil {
		return models.Table{}, mapDBError("get_table", err, "table %d not found", id)
	}
	return table, nil
}

func (ts *TableService) SetStatus(ctx context.Context, id uint, status string) error {
	if status != models.TableStatusAvailable && status != models.TableStatusOccupied {
		return NewValidationError("set_table_status", "unknown table status %q", status)
	}
	res := ts.db.WithContext(ctx).Model(&models.Table{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return mapDBError("set_table_status", res.Error, "table %d not found", id)
	}
	if res.RowsAffected == 0 {
		return NewNotFoundError("set_table_status", "table %d not found", id)
	}
	return nil
}

// Free marks a table available again.
func (ts *TableService) Free(ctx context.Context, id uint) error {
	return ts.SetStatus(ctx, id, models.TableStatusAvailable)
}

func (ts *TableService) Occupy(ctx context.Context, id uint) error {
	return ts.SetStatus(ctx, id, models.TableStatusOccupied)
}
