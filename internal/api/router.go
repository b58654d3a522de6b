package api

import (
	"log"
	"net/http"
	"time"

	"convohub-backend/internal/config"
	"convohub-backend/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	CompanionHandler *handlers.ChatHandlers
	StoryHandler     *handlers.ChatHandlers
	ExcelHandler     *handlers.ChatHandlers
	DocsHandler      *handlers.DocsHandlers
	SummarizeHandler *handlers.SummarizeHandlers
	Config           *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second)) // LLM calls can be slow

	// --- CORS Configuration ---
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// --- Session-Scoped Routes ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(SessionMiddleware)

		mountChatFeature(r, "/companion", deps.CompanionHandler, true)
		mountChatFeature(r, "/story", deps.StoryHandler, true)
		mountChatFeature(r, "/excel", deps.ExcelHandler, false)

		if deps.DocsHandler != nil {
			r.Route("/docs", func(r chi.Router) {
				r.Post("/upload", deps.DocsHandler.HandleUpload)
				r.Post("/ask", deps.DocsHandler.HandleAsk)
				r.Get("/list", deps.DocsHandler.HandleList)
				r.Get("/chat/{docID}", deps.DocsHandler.HandleGetChat)
			})
		} else {
			log.Println("WARN: DocsHandler dependency is nil, skipping /v1/docs routes.")
		}

		if deps.SummarizeHandler != nil {
			r.Route("/summarize", func(r chi.Router) {
				r.Post("/url", deps.SummarizeHandler.HandleSummarizeURL)
				r.Post("/audio", deps.SummarizeHandler.HandleSummarizeAudio)
			})
		} else {
			log.Println("WARN: SummarizeHandler dependency is nil, skipping /v1/summarize routes.")
		}
	})

	return r
}

// mountChatFeature wires the common chat surface for one feature. The recent
// activity view only exists for the persona features.
func mountChatFeature(r chi.Router, prefix string, h *handlers.ChatHandlers, withRecent bool) {
	if h == nil {
		log.Printf("WARN: chat handler for %s is nil, skipping routes.", prefix)
		return
	}
	r.Route(prefix, func(r chi.Router) {
		r.Post("/ask", h.HandleAsk)
		r.Get("/conversations", h.HandleListConversations)
		r.Get("/conversations/{conversationID}", h.HandleGetConversation)
		if withRecent {
			r.Get("/recent", h.HandleRecent)
		}
	})
}
