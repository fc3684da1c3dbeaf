package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Aramesh-Aria/acasmart-api/internal/handler"
	internalmiddleware "github.com/Aramesh-Aria/acasmart-api/internal/middleware"
	"github.com/Aramesh-Aria/acasmart-api/internal/repository"
	"github.com/Aramesh-Aria/acasmart-api/internal/service"
	"github.com/Aramesh-Aria/acasmart-api/pkg/config"
	"github.com/Aramesh-Aria/acasmart-api/pkg/database"
	"github.com/Aramesh-Aria/acasmart-api/pkg/logger"
	corsmiddleware "github.com/Aramesh-Aria/acasmart-api/pkg/middleware/cors"
	reqidmiddleware "github.com/Aramesh-Aria/acasmart-api/pkg/middleware/requestid"
	"github.com/Aramesh-Aria/acasmart-api/pkg/sms"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	validate := validator.New()

	termRepo := repository.NewTermRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	pricingRepo := repository.NewPricingProfileRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)

	metricsSvc := service.NewMetricsService()
	settingsSvc := service.NewSettingsService(settingRepo, cfg.Terms, logr)
	conflictSvc := service.NewConflictService(sessionRepo, classRepo, logr)
	smsClient := sms.NewClient(cfg.SMS, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, termRepo, attendanceRepo, studentRepo, classRepo, smsClient, metricsSvc, logr)

	// One locker shared by every mutating service, so term resolution,
	// bookings, attendance closure and garbage collection for the same
	// student serialize against each other.
	locks := service.NewKeyedLocker()
	termSvc := service.NewTermService(termRepo, sessionRepo, paymentRepo, conflictSvc, pricingRepo, settingsSvc, classRepo, locks, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, termSvc, conflictSvc, classRepo, locks, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, termRepo, sessionRepo, notificationSvc, metricsSvc, locks, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, teacherRepo, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, termRepo, validate, logr)
	pricingSvc := service.NewPricingService(pricingRepo, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Terms:         handler.NewTermHandler(termSvc),
		Sessions:      handler.NewSessionHandler(sessionSvc),
		Attendance:    handler.NewAttendanceHandler(attendanceSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Conflicts:     handler.NewConflictHandler(conflictSvc),
		Students:      handler.NewStudentHandler(studentSvc),
		Teachers:      handler.NewTeacherHandler(teacherSvc),
		Classes:       handler.NewClassHandler(classSvc),
		Payments:      handler.NewPaymentHandler(paymentSvc),
		Settings:      handler.NewSettingsHandler(settingsSvc, pricingSvc),
		Metrics:       handler.NewMetricsHandler(metricsSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
