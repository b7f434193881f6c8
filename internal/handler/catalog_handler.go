package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prasit-p/school-register-api/internal/middleware"
	"github.com/prasit-p/school-register-api/internal/service"
	"github.com/prasit-p/school-register-api/pkg/response"
)

// CatalogHandler exposes the open-section catalog.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Search godoc
// @Summary Search open sections
// @Description List open sections for a term, optionally filtered by keyword and classroom
// @Tags Catalog
// @Produce json
// @Param year query string false "Academic year, CE or BE"
// @Param semester query int false "Semester number"
// @Param keyword query string false "Subject code or name fragment"
// @Param classroom_id query int false "Restrict to a classroom's sections"
// @Param scope query string false "all searches across every term instead of defaulting to the active one"
// @Success 200 {object} response.Envelope
// @Router /sections [get]
func (h *CatalogHandler) Search(c *gin.Context) {
	year, semester := termQuery(c)
	query := service.CatalogQuery{
		Keyword:  c.Query("keyword"),
		Year:     year,
		Semester: semester,
	}
	if raw := c.Query("classroom_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			query.ClassroomID = id
		}
	}

	// scope=all skips the active-term default so a keyword can match open
	// sections in any term.
	var result *service.CatalogResult
	var err error
	if c.Query("scope") == "all" {
		result, err = h.catalog.Search(c.Request.Context(), query)
	} else {
		result, err = h.catalog.Browse(c.Request.Context(), query)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, result.CacheHit)
	response.JSON(c, http.StatusOK, result.Sections, nil, response.TermMeta(result.Term))
}
