package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/rabithua/chatmemo/common"
	"github.com/rabithua/chatmemo/common/log"
	"github.com/rabithua/chatmemo/server/profile"
	"github.com/rabithua/chatmemo/store"
	"github.com/rabithua/chatmemo/store/db"
)

type Server struct {
	e *echo.Echo

	db *db.DB

	ID      string
	Secret  string
	Profile *profile.Profile
	Store   *store.Store
}

func NewServer(ctx context.Context, profile *profile.Profile) (*Server, error) {
	e := echo.New()
	e.Debug = profile.IsDev()
	e.HideBanner = true
	e.HidePort = true

	db := db.NewDB(profile)
	if err := db.Open(ctx); err != nil {
		return nil, fmt.Errorf("cannot open db: %w", err)
	}

	s := &Server{
		e:       e,
		db:      db,
		ID:      common.GenUUID(),
		Profile: profile,
		Store:   store.New(db.DBInstance, profile),
	}

	secret, err := s.Store.GetOrCreateSecretSession(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot load secret session: %w", err)
	}
	s.Secret = secret

	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: common.GenUUID,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))

	apiGroup := e.Group("/api")
	apiGroup.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return JWTMiddleware(s, next, s.Secret)
	})
	s.registerSystemRoutes(apiGroup)
	s.registerAuthRoutes(apiGroup)
	s.registerUserRoutes(apiGroup)
	s.registerConversationRoutes(apiGroup)
	s.registerForkRoutes(apiGroup)
	s.registerMemoRoutes(apiGroup)

	return s, nil
}

func (s *Server) Start(_ context.Context) error {
	return s.e.Start(fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port))
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Shutdown echo server
	if err := s.e.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server", zap.Error(err))
	}

	// Close database connection
	if err := s.db.Close(); err != nil {
		log.Error("failed to close database", zap.Error(err))
	}

	log.Info("server stopped properly", zap.String("id", s.ID))
}

// errorHandler logs the internal cause of server errors before writing the response.
func (s *Server) errorHandler(err error, c echo.Context) {
	if he, ok := err.(*echo.HTTPError); ok && he.Code >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", he.Code),
			zap.Error(he.Internal),
		)
	}
	s.e.DefaultHTTPErrorHandler(err, c)
}
