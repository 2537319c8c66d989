// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/unclebandit/dripflow-backend/internal/auth"
	"github.com/unclebandit/dripflow-backend/internal/collab"
	"github.com/unclebandit/dripflow-backend/internal/controller"
	"github.com/unclebandit/dripflow-backend/internal/db"
	"github.com/unclebandit/dripflow-backend/internal/presence"
	"github.com/unclebandit/dripflow-backend/internal/queue"
	"github.com/unclebandit/dripflow-backend/internal/repository"
	"github.com/unclebandit/dripflow-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()

	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	userRepo := &repository.UserRepository{DB: db.DB}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	tokens := &auth.TokenIssuer{Secret: []byte(secret)}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
	}
	authService := &service.AuthService{
		UserRepo: userRepo,
		Tokens:   tokens,
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
	}
	authController := &controller.AuthController{
		AuthService: authService,
	}

	// Collaboration hub; room state is ephemeral and lost on restart.
	registry := presence.NewRegistry()
	hub := collab.NewHub(registry)

	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		bus, err := queue.NewAMQPBus(amqpURL)
		if err != nil {
			log.Fatal("failed to connect to AMQP bus:", err)
		}
		if err := hub.AttachBus(bus); err != nil {
			log.Fatal("failed to subscribe to AMQP bus:", err)
		}
		log.Println("✅ Cross-instance update bus connected")
	}

	r := chi.NewRouter()

	// Auth routes
	r.Post("/api/auth/register", authController.Register)
	r.Post("/api/auth/login", authController.Login)

	// Campaign routes (owner-scoped)
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokens))
		r.Get("/api/campaigns", campaignController.ListCampaigns)
		r.Post("/api/campaigns", campaignController.CreateCampaign)
		r.Get("/api/campaigns/{id}", campaignController.GetCampaign)
		r.Put("/api/campaigns/{id}", campaignController.UpdateCampaign)
		r.Delete("/api/campaigns/{id}", campaignController.DeleteCampaign)
	})

	// Real-time collaboration
	r.Handle("/ws", hub.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("🚀 Server running on :" + port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
