package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/planbana/go-api/internal/application/verification"
	"github.com/planbana/go-api/internal/config"
	"github.com/planbana/go-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/planbana/go-api/internal/infrastructure/jwt"
	"github.com/planbana/go-api/internal/infrastructure/memstore"
	"github.com/planbana/go-api/internal/infrastructure/smtp"
	"github.com/planbana/go-api/internal/infrastructure/sns"
	transporthttp "github.com/planbana/go-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender (optional — dev environments run without it).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	// Verification state is in-memory and process-local: a restart drops
	// pending codes and tickets, which is acceptable for their lifetimes.
	otpStore := memstore.NewOTPStore()
	ticketStore := memstore.NewTicketStore()
	go sweep(otpStore, ticketStore)

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		ResetRepo:   dynamo.NewResetTokenRepo(dynamoClient, cfg.DynamoTables.ResetTokens),
		Verifier:    verification.NewService(otpStore, ticketStore),
		Mailer:      mailer,
		SMSSender:   smsSender,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

// sweep periodically evicts expired codes and tickets. Correctness does not
// depend on it; expired entries are also rejected lazily on access.
func sweep(otp *memstore.OTPStore, tickets *memstore.TicketStore) {
	for range time.Tick(time.Minute) {
		otp.Sweep()
		tickets.Sweep()
	}
}
