package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/models"
)

func TestGetAllTables(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "lan", cashierPIN)

	ts.openOrder(t, token, 2, 1)

	w, env := ts.do(t, http.MethodGet, "/tables", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode[struct {
		Tables    []models.Table `json:"tables"`
		Total     int            `json:"total"`
		Occupied  int            `json:"occupied"`
		Available int            `json:"available"`
	}](t, env)
	assert.Equal(t, 2, data.Total)
	assert.Equal(t, 1, data.Occupied)
	assert.Equal(t, 1, data.Available)
}

func TestGetTableByID(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "lan", cashierPIN)

	w, env := ts.do(t, http.MethodGet, "/tables/1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "T1", decode[models.Table](t, env).Name)

	w, _ = ts.do(t, http.MethodGet, "/tables/42", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = ts.do(t, http.MethodGet, "/tables/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
