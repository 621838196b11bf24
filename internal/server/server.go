package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dukerupert/choreus/internal/approval"
	"github.com/dukerupert/choreus/internal/auth"
	"github.com/dukerupert/choreus/internal/config"
	"github.com/dukerupert/choreus/internal/handler"
	"github.com/dukerupert/choreus/internal/middleware"
	"github.com/dukerupert/choreus/internal/notify"
	"github.com/dukerupert/choreus/internal/push"
	"github.com/dukerupert/choreus/internal/store"
	ws "github.com/dukerupert/choreus/internal/websocket"
)

const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	tokens         *auth.Manager
	userStore      *store.UserStore
	authH          *handler.AuthHandler
	userH          *handler.UserHandler
	taskH          *handler.TaskHandler
	conditionH     *handler.ConditionHandler
	requestH       *handler.RequestHandler
	pushH          *handler.PushHandler
	dispatcher     *notify.Dispatcher
	rateLimiter    *middleware.RateLimiter
	pushScheduler  *push.Scheduler
	corsOrigins    []string
	originPatterns []string
	logger         *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	taskStore := store.NewTaskStore(db)
	conditionStore := store.NewConditionStore(db)
	requestStore := store.NewRequestStore(db)
	outcomeStore := store.NewOutcomeStore(db)
	pushStore := store.NewPushStore(db)

	// Push notification service + scheduler
	var pushH *handler.PushHandler
	var pushSched *push.Scheduler
	var pusher notify.UserNotifier
	if cfg.PushEnabled() {
		pushLogger := logger.With("component", "push")
		pushSvc := push.NewService(push.Config{
			VAPIDPublicKey:  cfg.VAPIDPublic,
			VAPIDPrivateKey: cfg.VAPIDPrivate,
			Subscriber:      cfg.PushSubscriber,
		})
		notifier := push.NewNotifier(pushSvc, pushStore, pushLogger)
		pusher = notifier
		pushSched = push.NewScheduler(notifier, requestStore, cfg.ReminderInterval, cfg.ReminderAfter, pushLogger)
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	dispatcher := notify.NewDispatcher(hub, pusher, logger.With("component", "notify"))
	approvals := approval.NewService(
		approval.Config{AllowRevote: cfg.AllowRevote},
		store.NewTxManager(db),
		requestStore,
		taskStore,
		userStore,
		outcomeStore,
		dispatcher,
		logger.With("component", "requests"),
	)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	return &Server{
		db:             db,
		hub:            hub,
		tokens:         tokens,
		userStore:      userStore,
		authH:          handler.NewAuthHandler(userStore, tokens, logger.With("component", "auth")),
		userH:          handler.NewUserHandler(userStore, logger.With("component", "user")),
		taskH:          handler.NewTaskHandler(taskStore, userStore, hub, logger.With("component", "task")),
		conditionH:     handler.NewConditionHandler(conditionStore, logger.With("component", "condition")),
		requestH:       handler.NewRequestHandler(approvals, logger.With("component", "request")),
		pushH:          pushH,
		dispatcher:     dispatcher,
		rateLimiter:    middleware.NewRateLimiter(),
		pushScheduler:  pushSched,
		corsOrigins:    cfg.CORSOrigins,
		originPatterns: ws.OriginPatterns(cfg.CORSOrigins),
		logger:         logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// PushScheduler returns the reminder scheduler, or nil when push is disabled.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

// Dispatcher returns the request event dispatcher so shutdown can wait
// for in-flight push deliveries.
func (s *Server) Dispatcher() *notify.Dispatcher {
	return s.dispatcher
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/signup", s.rateLimitedHandler(s.authH.Signup))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokens, s.userStore, s.logger.With("component", "auth"))
	outerMux.Handle("/", authMiddleware(protectedMux))

	var h http.Handler = outerMux
	h = middleware.CORS(s.corsOrigins)(h)
	h = chimw.Recoverer(h)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	return chimw.RequestID(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, authRateLimit, authRateWindow)
	return rl(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.originPatterns, s.logger.With("component", "websocket")))

	// User routes
	mux.HandleFunc("GET /api/users/me", s.userH.Me)
	mux.HandleFunc("PATCH /api/users/me", s.userH.UpdateMe)
	mux.HandleFunc("GET /api/users/household", s.userH.Household)

	// Task routes
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("PATCH /api/tasks/{id}/toggle", s.taskH.Toggle)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	// Condition routes
	mux.HandleFunc("GET /api/conditions", s.conditionH.List)
	mux.HandleFunc("GET /api/conditions/{date}", s.conditionH.Get)
	mux.HandleFunc("PUT /api/conditions", s.conditionH.Upsert)
	mux.HandleFunc("DELETE /api/conditions/{id}", s.conditionH.Delete)

	// Request routes
	mux.HandleFunc("GET /api/requests", s.requestH.List)
	mux.HandleFunc("POST /api/requests", s.requestH.Create)
	mux.HandleFunc("GET /api/requests/history", s.requestH.History)
	mux.HandleFunc("PATCH /api/requests/{id}/decision", s.requestH.Decide)

	// Push notification routes
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	}
}
