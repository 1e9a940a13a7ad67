package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"notes-api/auth"
	"notes-api/config"
	"notes-api/db"
	"notes-api/handlers"
	appmw "notes-api/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file found, reading config from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Config error: ", err)
	}

	store, err := db.Connect(cfg.DBAdapter, cfg.StoreDSN())
	if err != nil {
		log.Fatal("DB connection error: ", err)
	}
	defer store.Close()

	tokens := auth.NewTokenManager([]byte(cfg.JWTSecret), cfg.TokenTTL)
	h := &handlers.Handler{
		Store:  store,
		Hasher: auth.PasswordHasher{Cost: cfg.BcryptCost},
		Tokens: tokens,
	}
	authmw := &appmw.Auth{Tokens: tokens, Store: store}

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors(cfg.ClientURL))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Notes App API is running..."))
	})

	r.Post("/api/auth/signup", h.Signup)
	r.Post("/api/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth)
		r.Get("/api/auth/me", h.Me)
		r.Get("/api/notes", h.GetNotes)
		r.Post("/api/notes", h.CreateNote)
		r.Get("/api/notes/{id}", h.GetNote)
		r.Put("/api/notes/{id}", h.UpdateNote)
		r.Delete("/api/notes/{id}", h.DeleteNote)
	})

	log.Println("Server running on http://localhost:" + cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}

func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
