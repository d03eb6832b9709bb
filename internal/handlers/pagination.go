package handlers

import "github.com/gin-gonic/gin"

const (
	defaultPerPage = 50
	maxPerPage     = 200
)

// pageParams reads page/per_page query values, clamped the same way services clamp them.
func pageParams(c *gin.Context) (int, int) {
	page := parseIntQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := parseIntQuery(c, "per_page", defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}
