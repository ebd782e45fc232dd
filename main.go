package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raushankrgupta/eyewear-stylist/api"
	"github.com/raushankrgupta/eyewear-stylist/config"
	"github.com/raushankrgupta/eyewear-stylist/scrapers"
	"github.com/raushankrgupta/eyewear-stylist/scrapers/base"
	"github.com/raushankrgupta/eyewear-stylist/stylist"
	"github.com/raushankrgupta/eyewear-stylist/utils"
	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadConfig()
	utils.InitLogger(config.LogLevel, config.LogFormat)

	if config.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// Initialize MongoDB
	if err := utils.ConnectMongo(config.MongoURI); err != nil {
		logrus.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	ctx := context.Background()
	limiter := utils.NewGeminiLimiter(config.GeminiRequestsPerMinute)

	generator, err := utils.NewImageGenerator(ctx, config.GeminiAPIKey, config.GeminiImageModel, limiter)
	if err != nil {
		logrus.Fatalf("Failed to create image generator: %v", err)
	}
	defer generator.Close()

	consultant, err := utils.NewConsultant(ctx, config.GeminiAPIKey, config.GeminiChatModel, limiter, utils.ConsultantOptions{})
	if err != nil {
		logrus.Fatalf("Failed to create consultant: %v", err)
	}

	// session images live in GridFS; the session document only keeps their keys
	sessionStore, err := stylist.NewImageOffloadStore(
		stylist.NewMongoStore(utils.GetCollection(config.MongoDatabase, "sessions")),
		utils.NewGridFSBlobStore(utils.Client.Database(config.MongoDatabase), "session_images"),
		config.SessionCacheSize,
	)
	if err != nil {
		logrus.Fatalf("Failed to create session store: %v", err)
	}

	deps := stylist.Dependencies{
		Generator:  generator,
		Consultant: consultant,
		Store:      sessionStore,
	}

	var gallery api.GalleryLister
	if config.AWSBucketName != "" {
		archive := stylist.NewLookArchive(
			utils.NewObjectStore(config.AWSRegion, config.AWSBucketName),
			stylist.NewMongoLookRepository(utils.GetCollection(config.MongoDatabase, "looks")),
		)
		deps.Archiver = archive
		gallery = archive
	} else {
		logrus.Info("AWS_BUCKET_NAME not set, look archive disabled")
	}

	manager, err := stylist.NewManager(config.SessionCacheSize, deps)
	if err != nil {
		logrus.Fatalf("Failed to create session manager: %v", err)
	}

	previewer, err := scrapers.NewPreviewer(config.SessionCacheSize, base.Options{UseBrowser: config.LinkPreviewBrowser})
	if err != nil {
		logrus.Fatalf("Failed to create link previewer: %v", err)
	}

	handler := api.NewHandler(api.Options{
		Sessions:          manager,
		Previewer:         previewer,
		Gallery:           gallery,
		JWTSecret:         config.JWTSecret,
		TokenTTL:          time.Duration(config.SessionTTLHours) * time.Hour,
		GenerationTimeout: time.Duration(config.GenerationTimeoutSecs) * time.Second,
		MaxUploadBytes:    int64(config.MaxUploadMB) << 20,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           utils.LatencyMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on port %s...", config.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("http shutdown")
	}
	manager.Shutdown()
	if err := utils.DisconnectMongo(shutdownCtx); err != nil {
		logrus.WithError(err).Error("mongo disconnect")
	}
}
