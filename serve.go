package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alumni-portal/controllers"
	"alumni-portal/gateway"
	"alumni-portal/routes"
	"alumni-portal/services"
	"alumni-portal/store"
	"alumni-portal/utils"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
)

var (
	serveAddr      string
	serveNoMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the API and page server. Payment migrations are applied on
startup unless --no-migrate is given.

Examples:
  alumni-portal serve
  alumni-portal serve --addr :9000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to :$PORT)")
	serveCmd.Flags().BoolVar(&serveNoMigrate, "no-migrate", false, "skip applying payment migrations on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Payments database
	db, err := store.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if !serveNoMigrate {
		applied, err := store.Migrate(ctx, db)
		if err != nil {
			return err
		}
		for _, v := range applied {
			log.Printf("INFO: applied migration %s", v)
		}
	}

	// Connect to MongoDB
	client, err := utils.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("ERROR: disconnecting MongoDB: %v", err)
		}
	}()
	mongoDB := client.Database(cfg.MongoDB)
	users := store.NewUserStore(mongoDB)
	resets := store.NewResetTokenStore(mongoDB)
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	if err := resets.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create reset token indexes: %w", err)
	}

	transport, err := utils.NewMailTransport(cfg.MailProvider, cfg.PostmarkAPIToken, cfg.SendgridAPIKey)
	if err != nil {
		return err
	}
	emailService := utils.NewEmailService(transport, cfg.EmailSender, cfg.BaseURL)
	sessions := utils.NewSessionManager(cfg.JWTSecret, cfg.SessionTTL, cfg.IsProduction())
	showDetails := !cfg.IsProduction()

	paymentService := services.NewPaymentService(
		store.NewPaymentStore(db),
		gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewaySecretKey),
		emailService,
		cfg.GatewayCallbackURL,
	)

	// Initialize controllers
	handlers := routes.Handlers{
		Users:     controllers.NewUserController(users, resets, emailService, sessions, showDetails),
		Payments:  controllers.NewPaymentController(paymentService, showDetails),
		Sessions:  sessions,
		StaticDir: cfg.StaticDir,
	}
	if cfg.OAuthEnabled() {
		google := controllers.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.BaseURL+"/api/auth/callback/google")
		handlers.OAuth = controllers.NewOAuthController(google, users, sessions, cfg.IsProduction(), showDetails)
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router, handlers)

	addr := serveAddr
	if addr == "" {
		addr = ":" + cfg.Port
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("INFO: server is running on %s (%s)", addr, cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("INFO: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
