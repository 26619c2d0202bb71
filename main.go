package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-engine/internal/conversations"
	"chat-engine/internal/db"
	"chat-engine/internal/handlers"
	"chat-engine/internal/lifecycle"
	"chat-engine/internal/middleware"
	"chat-engine/internal/models"
	"chat-engine/internal/observability"
	"chat-engine/internal/prefs"
	"chat-engine/internal/rabbitmq"
	"chat-engine/internal/repositories"
	"chat-engine/internal/room"
	"chat-engine/internal/seed"
	"chat-engine/internal/telemetry"
	"chat-engine/internal/ws"
)

func main() {
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, "chat-engine", getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""))
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("tracer shutdown error: %v", err)
		}
	}()

	snapshot := seed.Load(time.Now())

	var history repositories.HistoryRepository
	if _, ok := os.LookupEnv("DB_DSN"); ok {
		database, err := db.Connect()
		if err != nil {
			log.Fatalf("failed to connect to db: %v", err)
		}
		repo := repositories.NewHistoryRepo(database)
		history = repo

		archived, err := repo.LoadConversations(ctx)
		if err != nil {
			log.Fatalf("failed to load archived conversations: %v", err)
		}
		if len(archived) > 0 {
			snapshot.Conversations = archived
		} else {
			seedArchive(ctx, repo, snapshot)
		}
	}

	prefStore, err := prefs.Open(getEnv("PREFS_PATH", "prefs.db"))
	if err != nil {
		log.Fatalf("failed to open preference store: %v", err)
	}
	defer prefStore.Close()

	amqpURL := getEnv("AMQP_URL", "")
	exchange := getEnv("AMQP_EXCHANGE", "chat_events")

	auditPublisher := rabbitmq.NewPublisher(amqpURL, exchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))

	audit := telemetry.NewAuditEmitter(auditPublisher, "audit.chat", "chat-engine", getEnv("ENVIRONMENT", "development"))

	if amqpURL != "" {
		eventPublisher, err := observability.NewAMQPPublisher(amqpURL, exchange)
		if err != nil {
			log.Printf("ws event publisher disabled: %v", err)
		} else {
			observability.SetPublisher(eventPublisher)
			defer eventPublisher.Close()
		}
	}

	hub := ws.NewHub()

	convEngine := conversations.NewEngine(snapshot.Conversations)
	convEngine.SetOnChange(func() {
		hub.BroadcastConversationList(convEngine.List(""))
	})

	acker := lifecycle.DelayAcknowledger{
		SendDelay:  envDuration("SEND_ACK_DELAY_MS", 800),
		RetryDelay: envDuration("RETRY_ACK_DELAY_MS", 600),
	}
	ackTimeout := envDuration("SEND_ACK_TIMEOUT_MS", 30000)

	source := func(conversationID string) []models.Message {
		if history != nil {
			msgs, err := history.LoadMessages(ctx, conversationID)
			if err != nil {
				log.Printf("failed to load archived messages conversation_id=%s: %v", conversationID, err)
			} else if len(msgs) > 0 {
				return msgs
			}
		}
		return snapshot.Messages[conversationID]
	}
	manager := room.NewManager(source, acker, ackTimeout, convEngine, hub, archiverOrNil(history))
	rooms := room.NewService(manager)

	conversationHandler := handlers.NewConversationHandler(convEngine, rooms, prefStore, history, snapshot.Users, audit)
	roomHandler := handlers.NewRoomHandler(rooms, convEngine, audit)

	roomWS := ws.NewRoomWebSocketHandler(hub, convEngine, rooms)
	listWS := ws.NewListWebSocketHandler(hub, convEngine)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware("chat-engine"))

	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/conversations", conversationHandler.ListConversations)
	router.POST("/conversations/:conversation_id/pin", conversationHandler.TogglePin)
	router.DELETE("/conversations/:conversation_id", conversationHandler.DeleteConversation)
	router.GET("/conversations/:conversation_id/settings", conversationHandler.GetSettings)
	router.PUT("/conversations/:conversation_id/settings", conversationHandler.UpdateSettings)
	router.GET("/users/:user_id", conversationHandler.GetUser)

	router.GET("/conversations/:conversation_id/messages", roomHandler.GetMessages)
	router.POST("/conversations/:conversation_id/messages", roomHandler.PostMessage)
	router.POST("/conversations/:conversation_id/messages/:message_id/retry", roomHandler.RetryMessage)
	router.DELETE("/conversations/:conversation_id/messages/:message_id", roomHandler.DeleteMessage)
	router.POST("/conversations/:conversation_id/messages/:message_id/recall", roomHandler.RecallMessage)
	router.POST("/conversations/:conversation_id/close", roomHandler.CloseRoom)

	router.GET("/ws/conversations/:conversation_id", roomWS.Handle)
	router.GET("/ws/conversations", listWS.Handle)

	handlers.RegisterDebugRoutes(router, audit, getEnv("ENABLE_DEBUG_ROUTES", "false") == "true")

	port := getEnv("PORT", "8080")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func seedArchive(ctx context.Context, repo repositories.HistoryRepository, snapshot seed.Snapshot) {
	for _, conv := range snapshot.Conversations {
		if err := repo.SaveConversation(ctx, conv); err != nil {
			log.Printf("failed to seed conversation %s: %v", conv.ID, err)
			continue
		}
		for _, msg := range snapshot.Messages[conv.ID] {
			if err := repo.SaveMessage(ctx, msg); err != nil {
				log.Printf("failed to seed message %s: %v", msg.ID, err)
			}
		}
	}
}

// archiverOrNil avoids handing the room layer a non-nil interface holding a
// nil repository.
func archiverOrNil(history repositories.HistoryRepository) room.Archiver {
	if history == nil {
		return nil
	}
	return history
}

func envDuration(key string, fallbackMs int) time.Duration {
	raw := getEnv(key, strconv.Itoa(fallbackMs))
	ms, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using %dms", key, raw, fallbackMs)
		ms = fallbackMs
	}
	return time.Duration(ms) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
