package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/xela07ax/webapi-auth-demo/internal/console/handler"
	"github.com/xela07ax/webapi-auth-demo/internal/infra"
	"github.com/xela07ax/webapi-auth-demo/internal/infra/auth"
	"go.uber.org/zap"
)

type ConsoleServer struct {
	router  *chi.Mux
	logger  *zap.Logger
	cfg     *infra.Config
	metrics *infra.Metrics

	// Проверка токенов (HS256) для защищенного периметра
	authValidator auth.TokenValidator

	authHandler *handler.AuthHandler // /api/Auth/*
}

// NewConsoleServer инициализирует API верификации со всеми зависимостями
func NewConsoleServer(
	cfg *infra.Config,
	logger *zap.Logger,
	metrics *infra.Metrics,
	validator auth.TokenValidator,
	authH *handler.AuthHandler,
) *ConsoleServer {
	if metrics == nil {
		metrics = infra.NewMetrics(nil)
	}
	s := &ConsoleServer{
		router:        chi.NewRouter(),
		logger:        logger.Named("console-api"),
		cfg:           cfg,
		metrics:       metrics,
		authValidator: validator,
		authHandler:   authH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(instrument(s.logger, s.metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Get("/health", handler.Health)

	r.Route("/api/Auth", func(r chi.Router) {
		// Логин должен быть доступен без токена
		r.Post("/ValidateUser", s.authHandler.ValidateUser)

		// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (Bearer токен) ---
		r.Group(func(r chi.Router) {
			r.Use(auth.NewMiddleware(s.authValidator, s.logger))
			r.Get("/Me", s.authHandler.Me)
		})
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
