package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// IDParam parses the "id" path parameter as a positive uint, writing a 400
// response on failure.
func IDParam(c *gin.Context) (uint, bool) {
	return IDParamNamed(c, "id")
}

// IDParamNamed parses the named path parameter as a positive uint.
func IDParamNamed(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		Error(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}
