package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/m073med011/lms-api/docs"
	"github.com/m073med011/lms-api/internal/app/api/handlers"
	mw "github.com/m073med011/lms-api/internal/app/api/middleware"
	"github.com/m073med011/lms-api/internal/app/service/catalog"
	"github.com/m073med011/lms-api/internal/app/service/checkout"
	"github.com/m073med011/lms-api/internal/app/service/purchase"
	"github.com/m073med011/lms-api/internal/app/service/reconciliation"
	"github.com/m073med011/lms-api/internal/app/service/users"
	cfgpkg "github.com/m073med011/lms-api/pkg/config"
	"github.com/m073med011/lms-api/pkg/metrics"
	"github.com/m073med011/lms-api/pkg/types"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request tracing only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

func newMetricsExporter(cfg *cfgpkg.Config, log *zap.SugaredLogger) *metrics.Exporter {
	if cfg == nil || cfg.MetricsAddr == "" {
		return nil
	}
	return metrics.NewExporter(metrics.NewExporterOptions{
		ListenAddress: cfg.MetricsAddr,
		Logger:        log,
	})
}

func registerRoutes(
	r *gin.Engine,
	log *zap.SugaredLogger,
	exporter *metrics.Exporter,
	userSvc *users.Service,
	catalogSvc *catalog.Service,
	checkoutSvc *checkout.Service,
	store *purchase.Store,
	eng reconciliation.Engine,
) {
	if exporter != nil {
		exporter.Use(r)
		log.Infow("metrics started")
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())

	authed := apiV1.Group("/")
	authed.Use(mw.AuthMiddleware(userSvc))

	handlers.RegisterAuthRoutes(apiV1.Group("/auth"), authed.Group("/auth"), userSvc)

	// Catalog: browsing is public, authoring is instructor-only
	apiV1.GET("/courses", handlers.ApiListCourses(catalogSvc))
	apiV1.GET("/courses/:id", handlers.ApiGetCourse(catalogSvc))
	instructor := authed.Group("/")
	instructor.Use(mw.RequireRole(types.UserRoleInstructor))
	instructor.POST("/courses", handlers.ApiCreateCourse(catalogSvc))
	instructor.GET("/courses/:id/students", handlers.ApiCourseStudents(catalogSvc))
	authed.GET("/my/courses", handlers.ApiMyCourses(catalogSvc))

	// Payment: the webhook is called by the processor, everything else by the buyer
	handlers.RegisterPaymentRoutes(apiV1, authed, checkoutSvc, eng, log)

	admin := authed.Group("/admin")
	admin.Use(mw.RequireRole(types.UserRoleAdmin))
	handlers.RegisterAdminRoutes(admin, store)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Provide(newMetricsExporter),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
