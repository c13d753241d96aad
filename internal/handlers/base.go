package handlers

import (
	"strings"

	"github.com/codrzexl/UniHub/internal/apperr"
	"github.com/codrzexl/UniHub/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Fail translates a service error into the external status + message pair.
// Internal errors are logged here and never leak details to clients.
func Fail(c *gin.Context, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		logger.L().Error("request failed",
			zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(apperr.HTTPStatus(err), gin.H{"message": apperr.Message(err)})
}

// userSummary is the resolved-by-reference shape of a user inside responses.
type userSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-insensitive contains pattern for the list search
// filters. User input is literal text: LIKE wildcards are escaped. Queries
// using it must carry ESCAPE '\'.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
