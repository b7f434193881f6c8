package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prasit-p/school-register-api/internal/models"
	appErrors "github.com/prasit-p/school-register-api/pkg/errors"
)

// Context keys shared with the response-meta middleware.
const (
	MetaContextKey      = "response_meta"
	StartTimeContextKey = "request_start"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional pagination metadata. Context
// meta set by middleware and handlers is merged in; explicit meta wins on
// key collisions.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Data: data, Pagination: pagination, Meta: contextMeta(c)}
	if len(meta) > 0 && meta[0] != nil {
		if envelope.Meta == nil {
			envelope.Meta = make(map[string]interface{}, len(meta[0]))
		}
		for k, v := range meta[0] {
			envelope.Meta[k] = v
		}
	}
	c.JSON(status, envelope)
}

func contextMeta(c *gin.Context) map[string]interface{} {
	var merged map[string]interface{}
	if value, exists := c.Get(MetaContextKey); exists {
		if stored, ok := value.(map[string]interface{}); ok && len(stored) > 0 {
			merged = make(map[string]interface{}, len(stored)+1)
			for k, v := range stored {
				merged[k] = v
			}
		}
	}
	if value, exists := c.Get(StartTimeContextKey); exists {
		if start, ok := value.(time.Time); ok {
			if merged == nil {
				merged = make(map[string]interface{}, 1)
			}
			merged["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
	return merged
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// TermMeta builds the meta block describing which term a response was
// resolved to. Handlers attach it whenever a fallback step may have
// changed the displayed year/semester.
func TermMeta(res *models.TermResolution) map[string]interface{} {
	if res == nil {
		return nil
	}
	return map[string]interface{}{
		"resolved_year":     res.Year,
		"resolved_semester": res.Semester,
		"term_fallback":     string(res.Step),
	}
}
