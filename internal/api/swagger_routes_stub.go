//go:build !swagger

package api

import "github.com/gin-gonic/gin"

// 默认构建不带Swagger UI，/openapi 和Redoc页面始终可用
func registerSwaggerRoutes(engine *gin.Engine) {}
