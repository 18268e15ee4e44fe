package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/egor/assistchat/config"
	"github.com/egor/assistchat/handlers"
	"github.com/egor/assistchat/middleware"
	"github.com/egor/assistchat/responder"
	"github.com/egor/assistchat/session"
	"github.com/egor/assistchat/voice"
	"github.com/egor/assistchat/websocket"
	"github.com/egor/assistchat/woocommerce"
)

func main() {
	// Инициализация логгера
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Конфигурация из окружения
	cfg := config.Load()

	// Инициализация push-канала рендереров
	hub := websocket.NewHub(logger)
	go hub.Run()

	// Клиенты внешних коллабораторов
	responderClient := responder.NewClient(cfg.ResponderURL, cfg.ResponderTimeout, logger)
	transcriber := voice.NewTranscriber(cfg.TranscriberURL, cfg.TranscriberKey, cfg.TranscriberModel, cfg.ResponderTimeout, logger)
	catalog := woocommerce.NewClient(cfg.WooBaseURL, cfg.WooConsumerKey, cfg.WooConsumerSecret, 0, logger)

	// Реестр диалоговых сессий — общее ядро для всех фронтендов
	registry := session.NewRegistry(responderClient, hub, logger)

	// Обработчики
	chatHandler := handlers.NewChatHandler(registry, logger)
	voiceHandler := handlers.NewVoiceHandler(transcriber, registry, logger)
	productHandler := handlers.NewProductHandler(catalog, logger)

	// Инициализация роутера Gin
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))

	// Настройка CORS для взаимодействия с фронтендами
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// API эндпоинты
	api := r.Group("/api")
	{
		chat := api.Group("/chat")
		{
			chat.POST("/message", chatHandler.SendMessage)
			chat.POST("/voice", voiceHandler.ProcessVoice)
			chat.POST("/reset", chatHandler.Reset)
			chat.GET("/history/:id", chatHandler.GetHistory)
			chat.GET("/quick-replies/:id", chatHandler.GetQuickReplies)
		}

		api.GET("/products", productHandler.ListProducts)
		api.GET("/products/:id", productHandler.GetProduct)
		api.GET("/categories", productHandler.ListCategories)
		api.POST("/orders", productHandler.CreateOrder)

		api.GET("/widget/bootstrap", handlers.WidgetBootstrap)
	}

	// WebSocket эндпоинт
	r.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(hub, c.Writer, c.Request)
	})

	// Запуск сервера
	logger.Info("сервер запущен", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("ошибка запуска сервера", zap.Error(err))
	}
}
