package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/eduscheduler-api/internal/handler"
	internalmiddleware "github.com/noah-isme/eduscheduler-api/internal/middleware"
	"github.com/noah-isme/eduscheduler-api/internal/service"
	"github.com/noah-isme/eduscheduler-api/pkg/config"
	"github.com/noah-isme/eduscheduler-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/eduscheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/eduscheduler-api/pkg/middleware/requestid"
)

type routeHandlers struct {
	faculty    *handler.FacultyHandler
	subjects   *handler.SubjectHandler
	classrooms *handler.ClassroomHandler
	batches    *handler.BatchHandler
	rules      *handler.RulesHandler
	timetables *handler.TimetableHandler
	exports    *handler.ExportHandler
	metrics    *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metricsSvc *service.MetricsService, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics"))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	faculty := api.Group("/faculty")
	faculty.GET("", h.faculty.List)
	faculty.POST("", h.faculty.Create)
	faculty.GET("/:id", h.faculty.Get)
	faculty.PUT("/:id", h.faculty.Update)
	faculty.DELETE("/:id", h.faculty.Delete)

	subjects := api.Group("/subjects")
	subjects.GET("", h.subjects.List)
	subjects.POST("", h.subjects.Create)
	subjects.POST("/import", h.subjects.Import)
	subjects.GET("/:id", h.subjects.Get)
	subjects.PUT("/:id", h.subjects.Update)
	subjects.DELETE("/:id", h.subjects.Delete)

	classrooms := api.Group("/classrooms")
	classrooms.GET("", h.classrooms.List)
	classrooms.POST("", h.classrooms.Create)
	classrooms.GET("/:id", h.classrooms.Get)
	classrooms.PUT("/:id", h.classrooms.Update)
	classrooms.DELETE("/:id", h.classrooms.Delete)

	batches := api.Group("/batches")
	batches.GET("", h.batches.List)
	batches.POST("", h.batches.Create)
	batches.GET("/:id", h.batches.Get)
	batches.PUT("/:id", h.batches.Update)
	batches.DELETE("/:id", h.batches.Delete)

	api.GET("/rules", h.rules.Get)
	api.PUT("/rules", h.rules.Update)

	timetables := api.Group("/timetables")
	timetables.POST("/generate", h.timetables.Generate)
	timetables.GET("", h.timetables.List)
	timetables.GET("/:id", h.timetables.Get)
	timetables.DELETE("/:id", h.timetables.Delete)
	timetables.GET("/:id/export", h.exports.Export)
	timetables.POST("/:id/exports", h.exports.Enqueue)

	exports := api.Group("/exports")
	exports.GET("/download/:token", h.exports.Download)
	exports.GET("/:jobId", h.exports.Status)

	return r
}
