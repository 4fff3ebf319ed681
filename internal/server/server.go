package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/hearth/internal/email"
	"github.com/dukerupert/hearth/internal/handler"
	"github.com/dukerupert/hearth/internal/household"
	"github.com/dukerupert/hearth/internal/middleware"
	"github.com/dukerupert/hearth/internal/notify"
	"github.com/dukerupert/hearth/internal/push"
	"github.com/dukerupert/hearth/internal/store"
	ws "github.com/dukerupert/hearth/internal/websocket"
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	service        *household.Service
	authH          *handler.AuthHandler
	householdH     *handler.HouseholdHandler
	memberH        *handler.MemberHandler
	invitationH    *handler.InvitationHandler
	pushH          *handler.PushHandler
	sessionStore   *store.SessionStore
	householdStore *store.HouseholdStore
	rateLimiter    *middleware.RateLimiter
	logger         *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, pushCfg push.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	membershipStore := store.NewMembershipStore(db)
	invitationStore := store.NewInvitationStore(db)
	sessionStore := store.NewSessionStore(db)
	pushStore := store.NewPushStore(db)

	pushSvc := push.NewService(pushCfg)
	notifier := notify.NewService(emailClient, pushSvc, userStore, pushStore, logger.With("component", "notify"))

	svc := household.NewService(
		userStore,
		householdStore,
		membershipStore,
		invitationStore,
		notifier,
		logger.With("component", "household"),
	)

	var pushH *handler.PushHandler
	if pushSvc.Configured() {
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	return &Server{
		db:             db,
		hub:            hub,
		service:        svc,
		authH:          handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		householdH:     handler.NewHouseholdHandler(svc, hub, logger.With("component", "household_handler")),
		memberH:        handler.NewMemberHandler(svc, hub, logger.With("component", "member_handler")),
		invitationH:    handler.NewInvitationHandler(svc, hub, logger.With("component", "invitation_handler")),
		pushH:          pushH,
		sessionStore:   sessionStore,
		householdStore: householdStore,
		rateLimiter:    middleware.NewRateLimiter(),
		logger:         logger,
	}
}

// Service returns the household service, for background tasks that run
// outside the request path.
func (s *Server) Service() *household.Service {
	return s.service
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Household routes
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("GET /api/households", s.householdH.List)
	mux.HandleFunc("GET /api/households/{id}", s.householdH.Get)
	mux.HandleFunc("PUT /api/households/{id}", s.householdH.Update)
	mux.HandleFunc("DELETE /api/households/{id}", s.householdH.Delete)

	// Membership routes
	mux.HandleFunc("GET /api/households/{id}/members", s.memberH.List)
	mux.HandleFunc("POST /api/households/{id}/members", s.memberH.Add)
	mux.HandleFunc("DELETE /api/households/{id}/members/{memberID}", s.memberH.Remove)
	mux.HandleFunc("PUT /api/households/{id}/members/{memberID}/role", s.memberH.ChangeRole)
	mux.HandleFunc("POST /api/households/{id}/leave", s.memberH.Leave)
	mux.HandleFunc("POST /api/households/{id}/transfer", s.memberH.Transfer)

	// Invitation routes
	mux.HandleFunc("POST /api/households/{id}/invitations", s.invitationH.Send)
	mux.HandleFunc("GET /api/households/{id}/invitations", s.invitationH.List)
	mux.HandleFunc("DELETE /api/households/{id}/invitations/{invitationID}", s.invitationH.Cancel)
	mux.HandleFunc("PATCH /api/households/{id}/invitations/{invitationID}", s.invitationH.Update)
	mux.HandleFunc("POST /api/households/{id}/invitations/{invitationID}/resend", s.invitationH.Resend)
	mux.HandleFunc("GET /api/invitations", s.invitationH.Mine)
	mux.HandleFunc("POST /api/invitations/{id}/accept", s.invitationH.Accept)
	mux.HandleFunc("POST /api/invitations/{id}/decline", s.invitationH.Decline)

	// Push notification routes
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.householdStore, s.logger.With("component", "websocket")))
}
