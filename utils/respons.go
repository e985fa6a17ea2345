package utils

import (
	"github.com/gin-gonic/gin"
)

// JSONResponse adalah amplop semua respons API. Code diisi untuk error
// layanan (validation, state, not_found, network) supaya terminal lain
// bisa memetakan ulang jenis error tanpa menebak dari HTTP status.
type JSONResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, status int, message string, data any) {
	c.JSON(status, JSONResponse{
		Status:  status >= 200 && status < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, status int, err error) {
	RespondErrorCode(c, status, "", err)
}

// RespondErrorCode -> error dengan kode jenisnya
func RespondErrorCode(c *gin.Context, status int, code string, err error) {
	c.JSON(status, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Code:    code,
	})
}
