package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"lms-backend/internal/handlers"
	"lms-backend/internal/middleware"
	"lms-backend/internal/models"
	"lms-backend/internal/websocket"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Learning      *handlers.LearningHandler
	Courses       *handlers.CourseHandler
	Instructors   *handlers.InstructorHandler
	Notifications *handlers.NotificationHandler
	Admin         *handlers.AdminHandler
	Uploads       *handlers.UploadHandler
}

type Options struct {
	CorsOrigins []string

	// LocalFilesDir and LocalFilesURL serve uploads when storage is local.
	LocalFilesDir string
	LocalFilesURL string
}

func New(
	jwtAuth *middleware.JWTAuth,
	counter middleware.Counter,
	h Handlers,
	wsHub *websocket.Hub,
	opts Options,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(counter, "auth", 10, time.Minute)

	staff := []string{models.RoleAdmin, models.RoleSubAdmin}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if opts.LocalFilesDir != "" && strings.HasPrefix(opts.LocalFilesURL, "/") {
		prefix := strings.TrimSuffix(opts.LocalFilesURL, "/")
		fs := http.StripPrefix(prefix, http.FileServer(http.Dir(opts.LocalFilesDir)))
		r.Get(prefix+"/*", fs.ServeHTTP)
	}

	// ──── Learning time (per user) ────
	r.Route("/users/{userId}/learning", func(r chi.Router) {
		r.Use(jwtAuth.Middleware)
		r.Use(middleware.RequireSelfOrRole("userId", staff...))
		r.Post("/time", h.Learning.AddTime)
		r.Get("/weekly", h.Learning.Weekly)
	})

	r.Route("/api", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", h.Auth.Register)
			r.Post("/verify", h.Auth.VerifyEmail)
			r.Post("/login", h.Auth.Login)
			r.Post("/refresh", h.Auth.Refresh)
			r.Post("/resend-verification", h.Auth.ResendVerification)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", h.Auth.Logout)
			})
		})

		// WebSocket authenticates through ?token=
		r.Get("/ws", wsHub.HandleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			// ──── Learning sessions ────
			r.Route("/learning/sessions", func(r chi.Router) {
				r.Post("/", h.Learning.StartSession)
				r.Post("/{sessionId}/end", h.Learning.EndSession)
				r.Post("/{sessionId}/sync", h.Learning.Sync)
			})

			// ──── Courses & lessons ────
			r.Route("/courses", func(r chi.Router) {
				r.Get("/", h.Courses.List)
				r.Post("/", h.Courses.Create)
				r.Get("/{courseId}", h.Courses.Get)
				r.Put("/{courseId}", h.Courses.Update)
				r.Delete("/{courseId}", h.Courses.Delete)
				r.Get("/{courseId}/lessons", h.Courses.ListLessons)
				r.Post("/{courseId}/lessons", h.Courses.CreateLesson)
			})
			r.Route("/lessons/{lessonId}", func(r chi.Router) {
				r.Get("/", h.Courses.GetLesson)
				r.Put("/", h.Courses.UpdateLesson)
				r.Delete("/", h.Courses.DeleteLesson)
			})

			// ──── Instructor profiles ────
			r.Route("/instructors", func(r chi.Router) {
				r.Get("/me", h.Instructors.GetMine)
				r.Put("/me", h.Instructors.UpdateMine)
				r.Get("/{userId}", h.Instructors.Get)
			})

			// ──── Notifications ────
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.Notifications.List)
				r.Get("/unread-count", h.Notifications.UnreadCount)
				r.Post("/{id}/read", h.Notifications.MarkRead)
			})

			// ──── Uploads ────
			r.With(middleware.RequireRole(append([]string{models.RoleInstructor}, staff...)...)).
				Post("/uploads", h.Uploads.Upload)

			// ──── Admin ────
			r.Route("/admin", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(staff...))
					r.Get("/users", h.Admin.ListUsers)
					r.Get("/users/{userId}", h.Admin.GetUser)
					r.Put("/users/{userId}/role", h.Admin.ChangeRole)
					r.Put("/users/{userId}/active", h.Admin.SetActive)
				})

				r.With(middleware.RequireRole(append([]string{models.RoleInstructor}, staff...)...)).
					Post("/notifications", h.Notifications.Create)
			})
		})
	})

	return r
}
