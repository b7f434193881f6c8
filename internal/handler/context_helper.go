package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prasit-p/school-register-api/internal/middleware"
	"github.com/prasit-p/school-register-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// targetStudentID returns the student a request acts on. Students always
// act on themselves; staff roles may pick another student via the
// student_id query parameter.
func targetStudentID(c *gin.Context, claims *models.JWTClaims) int64 {
	if claims == nil {
		return 0
	}
	if claims.Role == models.RoleStudent {
		return claims.UserID
	}
	if raw := c.Query("student_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			return id
		}
	}
	return claims.UserID
}

func termQuery(c *gin.Context) (year string, semester int) {
	year = c.Query("year")
	if raw := c.Query("semester"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			semester = parsed
		}
	}
	return year, semester
}
