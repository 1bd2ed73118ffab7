package ginserver

import (
	_ "embed"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

const openAPIPath = "/swagger/openapi.json"

var (
	//go:embed swagger/openapi.json
	openAPIDocument []byte

	//go:embed swagger/index.html
	swaggerPage string

	swaggerUI = []byte(strings.Replace(swaggerPage, "{{SPEC_URL}}", openAPIPath, 1))
)

// registerDocs serves the OpenAPI document and a Swagger UI page pointing at it.
func registerDocs(router gin.IRoutes) {
	router.GET(openAPIPath, func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache")
		c.Data(http.StatusOK, "application/json", openAPIDocument)
	})
	router.GET("/swagger", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", swaggerUI)
	})
}
