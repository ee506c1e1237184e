package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// registerOpenAPIRoutes 提供 /openapi 与 /docs/redoc
func registerOpenAPIRoutes(engine *gin.Engine) {
	engine.GET("/openapi", serveOpenAPI)
	engine.GET("/openapi.yaml", serveOpenAPI)
	engine.GET("/docs/redoc", serveRedoc)
}

func serveOpenAPI(c *gin.Context) {
	c.Header("Content-Type", "application/yaml; charset=utf-8")
	c.File("docs/api/openapi.yaml")
}

func serveRedoc(c *gin.Context) {
	// 优先使用本地 redoc 资源，离线可用；否则回退到 CDN
	scriptSrc := "https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"
	if _, err := os.Stat("static/vendors/redoc/redoc.standalone.js"); err == nil {
		scriptSrc = "/static/vendors/redoc/redoc.standalone.js"
	}

	html := `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Pull-Tab Game API - Redoc</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc spec-url="/openapi" expand-responses="200,201"></redoc>
    <script src="` + scriptSrc + `"></script>
  </body>
</html>`
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
