package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

type TableController struct {
	Tables *services.TableService
}

func NewTableController(tables *services.TableService) *TableController {
	return &TableController{Tables: tables}
}

// GetAllTables -> menampilkan seluruh meja beserta statusnya
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Tables.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// hitung ringkasan untuk dashboard
	occupied := 0
	for _, t := range tables {
		if t.Status == models.TableStatusOccupied {
			occupied++
		}
	}
	utils.RespondJSON(c, http.StatusOK, "All tables", gin.H{
		"tables":    tables,
		"total":     len(tables),
		"occupied":  occupied,
		"available": len(tables) - occupied,
	})
}

// GetTableByID
func (tc *TableController) GetTableByID(c *gin.Context) {
	tableID, err := parseUintParam(c, "table_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	table, err := tc.Tables.Get(c.Request.Context(), tableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}
