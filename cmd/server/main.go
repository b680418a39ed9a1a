// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/centrocomm/messaging-backend/internal/config"
	"github.com/centrocomm/messaging-backend/internal/controller"
	"github.com/centrocomm/messaging-backend/internal/db"
	"github.com/centrocomm/messaging-backend/internal/logger"
	"github.com/centrocomm/messaging-backend/internal/repository"
	"github.com/centrocomm/messaging-backend/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatal("logger:", err)
	}
	defer zlog.Sync()

	conn, err := db.Connect(cfg.DSN())
	if err != nil {
		zlog.Fatal("db connect failed", zap.Error(err))
	}
	defer conn.Close()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	customerRepo := &repository.CustomerRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}
	eventRepo := &repository.MessageEventRepository{DB: conn}
	messageRepo := &repository.MessageRepository{DB: conn}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		TemplateRepo: templateRepo,
		CustomerRepo: customerRepo,
		Log:          zlog,
	}

	campaignController := &controller.CampaignController{CampaignService: campaignService}
	templateController := &controller.TemplateController{Templates: templateRepo}
	eventController := &controller.EventController{Events: eventRepo, Messages: messageRepo}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)
	r.Put("/campaigns/{id}", campaignController.UpdateCampaign)
	r.Delete("/campaigns/{id}", campaignController.DeleteCampaign)
	r.Patch("/campaigns/{id}/status", campaignController.UpdateStatus)
	r.Get("/campaigns/{id}/customers", campaignController.MatchCustomers)
	r.Post("/campaigns/{id}/personalized-preview", campaignController.PersonalizedPreview)
	r.Post("/criteria/compile", campaignController.CompileCriteria)

	r.Post("/templates", templateController.CreateTemplate)
	r.Get("/templates", templateController.ListTemplates)
	r.Get("/templates/{id}", templateController.GetTemplate)
	r.Put("/templates/{id}", templateController.UpdateTemplate)
	r.Get("/templates/{id}/placeholders", templateController.TemplatePlaceholders)

	r.Post("/message-events", eventController.CreateEvent)
	r.Get("/message-events", eventController.ListEvents)
	r.Get("/message-events/{id}", eventController.GetEvent)
	r.Get("/message-events/{id}/messages", eventController.ListEventMessages)

	zlog.Info("server running", zap.String("port", cfg.ServerPort))
	if err := http.ListenAndServe(":"+cfg.ServerPort, r); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
