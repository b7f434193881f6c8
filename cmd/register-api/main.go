package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/prasit-p/school-register-api/api/swagger"
	"github.com/prasit-p/school-register-api/internal/handler"
	"github.com/prasit-p/school-register-api/internal/middleware"
	"github.com/prasit-p/school-register-api/internal/models"
	"github.com/prasit-p/school-register-api/internal/repository"
	"github.com/prasit-p/school-register-api/internal/service"
	"github.com/prasit-p/school-register-api/pkg/cache"
	"github.com/prasit-p/school-register-api/pkg/config"
	"github.com/prasit-p/school-register-api/pkg/database"
	"github.com/prasit-p/school-register-api/pkg/export"
	"github.com/prasit-p/school-register-api/pkg/logger"
	corsmiddleware "github.com/prasit-p/school-register-api/pkg/middleware/cors"
	reqidmiddleware "github.com/prasit-p/school-register-api/pkg/middleware/requestid"
)

// @title School Register API
// @version 1.0.0
// @description Course registration and schedule service for the school portal
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Catalog.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
			redisClient = nil
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	advisorRepo := repository.NewAdvisorRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	metricsSvc := service.NewMetricsService()
	termSvc := service.NewTermService(semesterRepo, logr)
	catalogSvc := service.NewCatalogService(sectionRepo, termSvc, cacheRepo, cfg.Catalog.CacheTTL, metricsSvc, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, sectionRepo, termSvc, cacheRepo, cfg.Registration.Open, validate, logr)
	timetableSvc := service.NewTimetableService(registrationSvc, logr)
	advisorSvc := service.NewAdvisorService(advisorRepo, studentRepo, termSvc, logr)
	pdfExporter := export.NewPDFExporter()
	if cfg.Exports.PDFFontPath != "" {
		pdfExporter = export.NewPDFExporterWithFont(cfg.Exports.PDFFontPath)
	}
	exportSvc := service.NewExportService(registrationSvc, timetableSvc, export.NewCSVExporter(), pdfExporter, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	termHandler := handler.NewTermHandler(termSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc, metricsSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	advisorHandler := handler.NewAdvisorHandler(advisorSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group(cfg.APIPrefix)
	{
		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/refresh", authHandler.Refresh)

		authed := v1.Group("")
		authed.Use(middleware.JWT(authSvc))
		{
			authed.POST("/auth/logout", authHandler.Logout)
			authed.GET("/auth/me", authHandler.Me)

			authed.GET("/terms", termHandler.List)
			authed.GET("/terms/active", termHandler.Active)
			authed.GET("/terms/resolve", termHandler.Resolve)

			authed.GET("/sections", catalogHandler.Search)

			authed.GET("/registrations", registrationHandler.List)
			authed.POST("/registrations/cart", registrationHandler.AddToCart)
			authed.POST("/registrations/confirm", registrationHandler.Confirm)
			authed.DELETE("/registrations/:id", registrationHandler.Remove)

			authed.GET("/timetable", timetableHandler.Get)
			authed.GET("/students/:studentId/timetable",
				middleware.RBAC("SELF", string(models.RoleTeacher), string(models.RoleDirector)),
				timetableHandler.GetForStudent)
			authed.GET("/advisors", advisorHandler.List)

			if cfg.Exports.Enabled {
				authed.GET("/export/registrations", exportHandler.Registrations)
				authed.GET("/export/timetable", exportHandler.Timetable)
			}

			authed.GET("/status", middleware.RequireRoles(models.RoleDirector), metricsHandler.Status)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
