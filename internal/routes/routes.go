package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"habboverify/internal/handlers"
	"habboverify/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	authHandler *handlers.AdminAuthHandler,
	recordsHandler *handlers.RecordsHandler,
	opsHandler *handlers.OpsHandler,
) *gin.Engine {

	// ---- public
	r.GET("/healthz", opsHandler.Healthz)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.POST("/admin/login", authHandler.Login)

	// ---- protected
	admin := r.Group("/admin", middleware.AuthMiddleware(jwtSecret))
	{
		admin.GET("/records", recordsHandler.List)
		admin.GET("/records/report.pdf", recordsHandler.Report)
		admin.GET("/attempts", opsHandler.Attempts)
		admin.POST("/repair", opsHandler.Repair)
		admin.GET("/events", opsHandler.Events)
	}

	return r
}
