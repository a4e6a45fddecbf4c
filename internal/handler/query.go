package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduscheduler-api/internal/dto"
	appErrors "github.com/noah-isme/eduscheduler-api/pkg/errors"
	"github.com/noah-isme/eduscheduler-api/pkg/response"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
)

// bindListQuery reads the shared list parameters and writes a 400 on failure.
func bindListQuery(c *gin.Context) (dto.ListQuery, bool) {
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return query, false
	}
	query.Search = strings.TrimSpace(query.Search)
	if query.Page <= 0 {
		query.Page = defaultPage
	}
	if query.PageSize <= 0 {
		query.PageSize = defaultPageSize
	}
	return query, true
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
