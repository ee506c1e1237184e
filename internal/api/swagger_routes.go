//go:build swagger

package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// registerSwaggerRoutes 挂载Swagger UI，浏览拉拉彩接口文档。
// 仅在 -tags swagger 构建时编译进来，线上默认不带。
func registerSwaggerRoutes(engine *gin.Engine) {
	// 文档数据直接取 /openapi 端点，不依赖swag本地生成包
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/openapi"),
		ginSwagger.DocExpansion("none"),
	))
}
