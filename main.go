package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freshfade/config"
	"freshfade/cron"
	"freshfade/database"
	calendarRepo "freshfade/database/repository/calendar"
	"freshfade/handlers"
	"freshfade/routes"
	"freshfade/services/booking"
	"freshfade/services/dialogue"
	ai "freshfade/services/intelligence"
	"freshfade/services/notification"
	"freshfade/services/speech"
	"freshfade/services/storage"
	"freshfade/services/tasks"
	"freshfade/services/telephony"
	"freshfade/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	cfg := config.AppConfig
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// calendar of record.
	var calendar calendarRepo.CalendarRepository
	switch cfg.CalendarBackend {
	case "google":
		repo, err := calendarRepo.NewGoogleCalendarRepo(ctx, cfg.GoogleServiceAccountFile, cfg.GoogleCalendarID, cfg.CalendarTimeout)
		if err != nil {
			logger.Fatal("failed to initialize google calendar", zap.Error(err))
		}
		calendar = repo
	default:
		database.InitDB()
		repo := calendarRepo.NewMongoCalendarRepo(database.Database(), cfg.CalendarTimeout)
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Warn("failed to ensure appointment indexes", zap.Error(err))
		}
		calendar = repo
	}

	resolver := &booking.DefaultAvailabilityResolver{Calendar: calendar, Step: cfg.SearchStep, Logger: logger}
	committer := &booking.DefaultBookingCommitter{Calendar: calendar, Location: loc, Logger: logger}

	// call contexts.
	store := ai.NewMemoryContextStore(cfg.SessionTimeout, logger)
	go store.StartCleanupRoutine(ctx, time.Minute)

	// NLU. A missing key leaves the client nil and every turn gets the apology reply.
	var nlu ai.NLUClient
	if gemini, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel); err != nil {
		logger.Warn("gemini unavailable, running without NLU", zap.Error(err))
	} else {
		defer gemini.Close()
		nlu = gemini
	}
	extractor := ai.NewIntentExtractor(nlu, store, ai.ExtractorOptions{
		BusinessName: cfg.BusinessName,
		Location:     loc,
		Timeout:      cfg.NLUTimeout,
	}, logger)

	controller := &dialogue.Controller{
		Extractor: extractor,
		Store:     store,
		Resolver:  resolver,
		Committer: committer,
		Duration:  cfg.BookingDuration,
		Step:      cfg.SearchStep,
		MaxProbes: cfg.SearchMaxProbes,
		Location:  loc,
		Logger:    logger,
	}

	// speech.
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	var transcriber speech.Transcriber
	if stt, err := speech.NewGoogleTranscriber(ctx, cfg.GoogleServiceAccountFile, cfg.STTLanguage, logger); err != nil {
		logger.Warn("speech-to-text unavailable, utterances will be empty", zap.Error(err))
	} else {
		defer stt.Close()
		transcriber = stt
	}
	var synthesizer speech.Synthesizer
	if cfg.ElevenLabsAPIKey != "" {
		synthesizer = speech.NewElevenLabsSynthesizer(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID, cfg.HTTPClientTimeout)
	} else {
		logger.Warn("ELEVENLABS_API_KEY not set, replies use the fallback clip or Twilio's voice")
	}

	// synthesized clip hosting.
	var audioStore storage.AudioStore
	var audioHandler *handlers.AudioHandler
	var redisClient *redis.Client
	switch cfg.AudioStore {
	case "cloudinary":
		cld, err := storage.NewCloudinaryAudioStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		if err != nil {
			logger.Fatal("failed to initialize cloudinary", zap.Error(err))
		}
		audioStore = cld
	default:
		client, err := utils.InitAudioCache()
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		redisClient = client
		clips := storage.NewRedisAudioStore(client, cfg.PublicBaseURL, cfg.AudioTTL)
		audioStore = clips
		audioHandler = &handlers.AudioHandler{Clips: clips, Logger: logger}
	}

	// SMS follow-ups.
	var notifier handlers.BookingNotifier
	var worker *asynq.Server
	if cfg.SMSConfirmations {
		sms, err := notification.NewSMSNotificationService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
		if err != nil {
			logger.Warn("sms confirmations disabled", zap.Error(err))
		} else {
			queueOpts := asynq.RedisClientOpt{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisQueueDB,
			}
			queueClient := asynq.NewClient(queueOpts)
			defer queueClient.Close()
			notifier = tasks.NewBookingQueue(queueClient, cfg.SMSReminderLead, logger)

			worker, err = cron.StartNotificationWorker(queueOpts, sms, logger)
			if err != nil {
				logger.Fatal("failed to start notification worker", zap.Error(err))
			}
		}
	}

	voiceHandler := &handlers.VoiceHandler{
		Dialogue: controller,
		Store:    store,
		Recordings: &telephony.RecordingFetcher{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			Attempts:   cfg.RecordingFetchAttempts,
			HTTPClient: httpClient,
			Logger:     logger,
		},
		Transcriber: transcriber,
		Synthesizer: synthesizer,
		Audio:       audioStore,
		Notifier:    notifier,
		Record: telephony.RecordOptions{
			ActionURL: cfg.PublicBaseURL + "/voice/turn",
			MaxLength: cfg.RecordMaxLength,
		},
		BusinessName:     cfg.BusinessName,
		FallbackAudioURL: cfg.FallbackAudioURL(),
		Location:         loc,
		Logger:           logger,
	}

	hb := &handlers.HandlerBundle{
		Voice:        voiceHandler,
		Audio:        audioHandler,
		Store:        store,
		BusinessName: cfg.BusinessName,
	}

	utils.StartHealthMonitor(ctx, 30*time.Second, redisClient, database.MongoClient)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	routes.RegisterRoutes(router, hb, routes.Options{
		ValidateSignature: cfg.ValidateTwilioSignature,
		TwilioAuthToken:   cfg.TwilioAuthToken,
		PublicBaseURL:     cfg.PublicBaseURL,
		StaticDir:         "./static",
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: router,
	}

	go func() {
		logger.Info("receptionist listening", zap.String("port", cfg.AppPort), zap.String("business", cfg.BusinessName))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	if worker != nil {
		worker.Shutdown()
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if err := database.Close(shutdownCtx); err != nil {
		logger.Warn("mongo disconnect failed", zap.Error(err))
	}
}
