package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	v1 "github.com/yizeng/gab/gin/gorm/event-checkin/internal/api/handler/v1"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/api/middleware"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/config"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/repository"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/repository/dao"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	userSvc := initUserService(db)
	authHandler := s.initAuthHandler(db)
	eventHandler := initEventHandler(db, userSvc)
	attendeeHandler := initAttendeeHandler(db, userSvc)
	feedHandler := v1.NewFeedHandler(userSvc)
	checkInHandler := initCheckInHandler(db, userSvc, feedHandler)

	s.MountHandlers(authHandler, eventHandler, attendeeHandler, checkInHandler, feedHandler)

	return s
}

func initUserService(db *gorm.DB) *service.UserService {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)

	return service.NewUserService(repo)
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func initEventHandler(db *gorm.DB, userSvc *service.UserService) *v1.EventHandler {
	eventDAO := dao.NewEventDAO(db)
	repo := repository.NewEventRepository(eventDAO)
	svc := service.NewEventService(repo)
	handler := v1.NewEventHandler(svc, userSvc)

	return handler
}

func initAttendeeHandler(db *gorm.DB, userSvc *service.UserService) *v1.AttendeeHandler {
	attendeeDAO := dao.NewAttendeeDAO(db)
	repo := repository.NewAttendeeRepository(attendeeDAO)
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	svc := service.NewRegistrationService(repo, eventRepo)
	handler := v1.NewAttendeeHandler(svc, userSvc)

	return handler
}

func initCheckInHandler(db *gorm.DB, userSvc *service.UserService, feed *v1.FeedHandler) *v1.CheckInHandler {
	attendeeDAO := dao.NewAttendeeDAO(db)
	repo := repository.NewAttendeeRepository(attendeeDAO)
	scanRecords := repository.NewScanRecordRepository(dao.NewScanRecordDAO(db))
	svc := service.NewCheckInService(repo, scanRecords)
	logSvc := service.NewScanLogService(scanRecords)
	handler := v1.NewCheckInHandler(svc, logSvc, userSvc, feed)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	eventHandler *v1.EventHandler,
	attendeeHandler *v1.AttendeeHandler,
	checkInHandler *v1.CheckInHandler,
	feedHandler *v1.FeedHandler,
) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	events := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		events.GET("/events", eventHandler.HandleGetEvents)
		events.POST("/events", eventHandler.HandleCreateEvent)
		events.GET("/events/:eventID", eventHandler.HandleGetEvent)

		events.GET("/events/:eventID/attendees", attendeeHandler.HandleGetAttendees)
		events.POST("/events/:eventID/attendees", attendeeHandler.HandleRegisterAttendee)
		events.GET("/events/:eventID/attendees/:attendeeID/ticket", attendeeHandler.HandleGetTicket)
		events.POST("/events/:eventID/attendees/:attendeeID/reset", attendeeHandler.HandleResetCheckIn)

		events.POST("/events/:eventID/checkin", checkInHandler.HandleCheckIn)
		events.GET("/events/:eventID/scans", checkInHandler.HandleListScans)
		events.GET("/events/:eventID/feed", feedHandler.HandleFeed)
	}

	s.Router.GET("/", v1.HandleHealthcheck)
}
