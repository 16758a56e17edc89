package routes

import (
	"log"

	"github.com/fitsbi/fitsbi-backend/internal/config"
	"github.com/fitsbi/fitsbi-backend/internal/handlers"
	"github.com/fitsbi/fitsbi-backend/internal/llm"
	"github.com/fitsbi/fitsbi-backend/internal/middleware"
	"github.com/fitsbi/fitsbi-backend/internal/repository"
	"github.com/fitsbi/fitsbi-backend/internal/services"
	chatws "github.com/fitsbi/fitsbi-backend/internal/websocket"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewUserProfileRepository(db)
	messageRepo := repository.NewChatMessageRepository(db)
	dailySummaryRepo := repository.NewDailySummaryRepository(db)
	userSummaryRepo := repository.NewUserSummaryRepository(db)

	// Without an API key the chat and generate endpoints answer 503; the rest
	// of the API works normally.
	var assistant *services.AssistantService
	if cfg.OpenAIAPIKey != "" {
		provider := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
		assistant = services.NewAssistantService(provider)
	} else {
		log.Println("assistant disabled: OPENAI_API_KEY is not set")
	}

	profileService := services.NewProfileService(db, profileRepo)

	chatHub := chatws.NewHub()
	go chatHub.Run()

	var chatAssistant services.ChatAssistant
	var daySummarizer services.Summarizer
	if assistant != nil {
		chatAssistant = assistant
		daySummarizer = assistant
	}
	chatService := services.NewChatService(messageRepo, profileService, userSummaryRepo, chatAssistant, chatHub)
	summaryService := services.NewSummaryService(dailySummaryRepo, userSummaryRepo, messageRepo, profileService, daySummarizer)
	analyticsService := services.NewAnalyticsService(messageRepo, profileService)

	authHandler := handlers.NewAuthHandler(db, userRepo, profileService, cfg.JWTSecret)
	profileHandler := handlers.NewProfileHandler(profileService)
	chatHandler := handlers.NewChatHandler(chatService, chatHub, cfg.JWTSecret)
	summaryHandler := handlers.NewSummaryHandler(summaryService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/google-sync", authHandler.GoogleSync)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	profile := authProtected.Group("/profile")
	profile.Get("", profileHandler.GetProfile)
	profile.Put("", profileHandler.UpdateProfile)
	profile.Get("/incomplete-fields", profileHandler.GetIncompleteFields)

	chat := authProtected.Group("/chat")
	chat.Post("/messages", chatHandler.SendMessage)
	chat.Get("/messages", chatHandler.GetHistory)

	summaries := authProtected.Group("/summaries")
	summaries.Get("/daily", summaryHandler.ListDailySummaries)
	summaries.Post("/daily/generate", summaryHandler.GenerateDailySummary)
	summaries.Get("/daily/:date", summaryHandler.GetDailySummary)
	summaries.Put("/daily/:date", summaryHandler.PutDailySummary)
	summaries.Get("/user", summaryHandler.GetUserSummary)
	summaries.Put("/user", summaryHandler.PutUserSummary)
	summaries.Post("/user/generate", summaryHandler.GenerateUserSummary)

	analytics := authProtected.Group("/analytics")
	analytics.Get("/conversations", analyticsHandler.GetConversationStats)

	// Mounted outside the /v1 group: its bearer middleware would answer 401
	// before WebSocketAuth could read the token query parameter.
	api.Use("/ws", chatHandler.WebSocketAuth)
	api.Get("/ws", websocket.New(chatHandler.HandleWebSocket))

	if err := registerDocsRoutes(app, cfg); err != nil {
		log.Printf("docs routes disabled: %v", err)
	}
}
