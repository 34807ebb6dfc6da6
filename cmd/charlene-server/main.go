package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/charlene/charlene/internal/assistant"
	"github.com/charlene/charlene/internal/audio"
	"github.com/charlene/charlene/internal/chat"
	"github.com/charlene/charlene/internal/config"
	"github.com/charlene/charlene/internal/web"
)

// AppState holds all application services
type AppState struct {
	Store       *chat.InMemoryStore
	ChatService *chat.Service
	Transcriber chat.Transcriber
	Synthesizer *audio.Synthesizer
	Logger      *zap.Logger
	Config      *config.Config
}

func main() {
	// Load configuration
	config.Load()

	// Initialize logger with config
	logger := initLogger()

	// Initialize application state
	as, err := newAppState(logger)
	if err != nil {
		logger.Fatal("Failed to initialize application state", zap.Error(err))
	}

	// Background maintenance runs independently of request handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionCfg := config.Session()
	as.Store.StartSweeper(ctx, sessionCfg.SweepInterval(), sessionCfg.MaxAge())
	as.Synthesizer.StartCleanup(ctx, time.Minute, config.Speech().FileTTL())

	// Create HTTP server
	router := setupRouter(as)

	addr := fmt.Sprintf("%s:%d", config.Http().Host, config.Http().Port)

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Setup graceful shutdown
	done := setupSignalHandler(server, cancel, logger)

	logger.Info("Starting Charlene server",
		zap.String("address", addr),
		zap.String("bot_name", config.Bot().Name),
		zap.String("model", config.Assistant().Model))

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	<-done
	logger.Info("Server shutdown complete")
}

// newAppState creates and initializes the application state
func newAppState(logger *zap.Logger) (*AppState, error) {
	botCfg := config.Bot()
	assistantCfg := config.Assistant()
	speechCfg := config.Speech()
	sessionCfg := config.Session()

	if assistantCfg.APIKey == "" {
		logger.Warn("No assistant API key configured - chat replies will fall back")
	}

	store := chat.NewInMemoryStore(logger)

	gateway := assistant.NewOpenRouter(assistant.Options{
		APIKey:      assistantCfg.APIKey,
		BaseURL:     assistantCfg.BaseURL,
		Model:       assistantCfg.Model,
		BotName:     botCfg.Name,
		MaxTokens:   assistantCfg.MaxTokens,
		Temperature: assistantCfg.Temperature,
		TopP:        assistantCfg.TopP,
	}, logger)

	chatService := chat.NewService(store, gateway, botCfg.Name, sessionCfg.MaxHistory, assistantCfg.Timeout(), logger)

	transcriber := audio.NewAssemblyAI(config.Transcription().APIKey, config.Transcription().Language, logger)

	synthesizer, err := audio.NewSynthesizer(speechCfg.AudioDir, speechCfg.Language, speechCfg.MaxTextLength, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}

	return &AppState{
		Store:       store,
		ChatService: chatService,
		Transcriber: transcriber,
		Synthesizer: synthesizer,
		Logger:      logger,
		Config:      config.Get(),
	}, nil
}

func initLogger() *zap.Logger {
	logConfig := config.Logger()

	var config zap.Config
	if logConfig.Format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	// Set log level
	switch logConfig.Level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	return logger
}

func setupRouter(as *AppState) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Add CORS middleware
	router.Use(cors.Default())

	// Add logging middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.MaxMultipartMemory = config.Http().MaxUploadSize

	// Health endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"sessions":  as.Store.Len(),
		})
	})

	// Chat API
	api := router.Group("/api")
	{
		api.GET("/session", getSession(as))
		api.POST("/chat", postChat(as))
		api.POST("/audio-to-text", audioToText(as))
		api.GET("/text-to-audio", textToAudio(as))
		api.POST("/clear-session", clearSession(as))
	}

	// Synthesized replies are plain files under the audio dir
	router.Static("/audio", as.Synthesizer.Dir())

	// Embedded chat front end
	webService := web.NewService(as.Logger)
	webService.SetupRoutes(router)

	return router
}

func setupSignalHandler(server *http.Server, cancelBackground context.CancelFunc, logger *zap.Logger) chan struct{} {
	done := make(chan struct{}, 1)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalCh

		logger.Info("Shutting down server...")

		cancelBackground()

		// Create context with timeout for graceful shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during server shutdown", zap.Error(err))
		}

		done <- struct{}{}
	}()

	return done
}

// getSession returns the existing session for a known id or creates a fresh one
func getSession(as *AppState) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, isNew := as.Store.GetOrCreate(c.Query("sessionId"))

		if isNew {
			as.Logger.Info("New visitor session", zap.String("session_id", session.ID))
		}

		botCfg := config.Bot()
		c.JSON(http.StatusOK, chat.SessionInfo{
			SessionID:      session.ID,
			BotName:        botCfg.Name,
			WelcomeMessage: botCfg.WelcomeMessage,
		})
	}
}

func postChat(as *AppState) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chat.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if req.Message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
			return
		}

		result, err := as.ChatService.Respond(c.Request.Context(), req.SessionID, req.Message)
		if err != nil {
			if chat.IsSessionNotFound(err) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session"})
				return
			}
			as.Logger.Error("Chat turn failed", zap.String("session_id", req.SessionID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process message"})
			return
		}

		c.JSON(http.StatusOK, chat.ChatResponse{
			Text:      result.Text,
			UserName:  result.UserName,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
}

func audioToText(as *AppState) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("audio")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No audio file uploaded", "success": false})
			return
		}

		sessionID := c.PostForm("sessionId")
		if _, err := as.Store.Get(sessionID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session", "success": false})
			return
		}

		if file.Size > config.Http().MaxUploadSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Audio file too large", "success": false})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read audio file", "success": false})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read audio file", "success": false})
			return
		}

		text, err := as.Transcriber.Transcribe(c.Request.Context(), data)
		if err != nil {
			as.Logger.Error("Transcription failed",
				zap.String("session_id", sessionID),
				zap.String("file", file.Filename),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Sorry, I couldn't understand the audio. Could you type your question?",
				"success": false,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"text": text, "success": true})
	}
}

func textToAudio(as *AppState) gin.HandlerFunc {
	return func(c *gin.Context) {
		text := c.Query("text")
		if text == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text is required", "success": false})
			return
		}

		filename, err := as.Synthesizer.Synthesize(text)
		if err != nil {
			as.Logger.Error("Speech synthesis failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate audio", "success": false})
			return
		}

		c.JSON(http.StatusOK, gin.H{"audioUrl": "/audio/" + filename, "success": true})
	}
}

// clearSession deletes a session; deleting an unknown id still succeeds
func clearSession(as *AppState) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chat.ClearSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, gin.H{"success": true})
			return
		}

		if req.SessionID != "" {
			as.Store.Delete(req.SessionID)
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
