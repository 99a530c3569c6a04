package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"kasu/internal/auth"
	"kasu/internal/domain"
	"kasu/internal/gateway"
	"kasu/internal/gateway/dojah"
	"kasu/internal/gateway/paystack"
	"kasu/internal/handler"
	"kasu/internal/middleware"
	"kasu/internal/notification"
	"kasu/internal/pendingcode"
	"kasu/internal/repository/postgres"
	"kasu/internal/verification"
	"kasu/internal/wallet"
	"kasu/pkg/cache"
	"kasu/pkg/config"
	"kasu/pkg/logger"
	"kasu/pkg/validator"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New("kasu-api")

	log.Info("Starting API server", logger.Fields{"port": cfg.Server.Port})

	// Database connection
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", logger.Fields{"error": err.Error()})
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	log.Info("Database connected", nil)

	// Redis connection
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal("Failed to connect to Redis", logger.Fields{"error": err.Error()})
	}

	log.Info("Redis connected", nil)

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	vendorRepo := postgres.NewVendorRepository(db)
	attemptRepo := postgres.NewAttemptRepository(db)
	walletRepo := postgres.NewWalletRepository(db)
	txRepo := postgres.NewTransactionRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	refundRepo := postgres.NewRefundRepository(db)

	// External gateways
	var identityGateway gateway.IdentityGateway
	if cfg.Dojah.UseMock {
		log.Warn("Using mock identity gateway", nil)
		identityGateway = dojah.NewMock(log)
	} else {
		identityGateway = dojah.NewClient(cfg.Dojah, log)
	}

	var payoutGateway gateway.PayoutGateway
	if cfg.Paystack.UseMock {
		log.Warn("Using mock payout gateway", nil)
		payoutGateway = paystack.NewMock(log)
	} else {
		payoutGateway = paystack.NewClient(cfg.Paystack, log)
	}

	minimumPayout, err := decimal.NewFromString(cfg.Wallet.MinimumPayout)
	if err != nil {
		log.Fatal("Invalid WALLET_MINIMUM_PAYOUT", logger.Fields{"value": cfg.Wallet.MinimumPayout})
	}
	commissionRate, err := decimal.NewFromString(cfg.Wallet.DefaultCommissionRate)
	if err != nil {
		log.Fatal("Invalid WALLET_DEFAULT_COMMISSION_RATE", logger.Fields{"value": cfg.Wallet.DefaultCommissionRate})
	}

	// Services
	var notifier notification.Dispatcher = notification.NewService(log)
	if cfg.SMTP.Host != "" {
		notifier = notification.NewEmailDispatcher(notifier, notification.SMTPConfig{
			Host:       cfg.SMTP.Host,
			Port:       cfg.SMTP.Port,
			Username:   cfg.SMTP.Username,
			Password:   cfg.SMTP.Password,
			From:       cfg.SMTP.From,
			UseTLS:     cfg.SMTP.UseTLS,
			OpsAddress: cfg.SMTP.OpsAddress,
		}, log)
	}
	codes := pendingcode.NewRedisStore(redisCache)

	authService := auth.NewService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	verificationService := verification.NewService(
		vendorRepo, attemptRepo, walletRepo,
		identityGateway, codes, notifier,
		cfg.Verification, commissionRate, log,
	)
	walletService := wallet.NewService(
		walletRepo, txRepo, orderRepo, refundRepo,
		payoutGateway, notifier, minimumPayout, log,
	)

	// Handlers
	val := validator.New()
	authHandler := handler.NewAuthHandler(authService, val, log)
	verificationHandler := handler.NewVerificationHandler(verificationService, val, log)
	walletHandler := handler.NewWalletHandler(walletService, verificationService, val, log)
	adminHandler := handler.NewAdminHandler(verificationService, walletService, val, log)

	// Router
	r := mux.NewRouter()

	r.Use(middleware.CORS)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CorrelationID)
	r.Use(middleware.NewLoggingMiddleware(log).Log)
	r.Use(middleware.NewRateLimiter(redisCache.Client(), 120, time.Minute).Limit)

	authMW := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/ready", readyCheck(db)).Methods("GET")

	// Public routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Vendor routes
	vendorAPI := api.PathPrefix("/vendor").Subrouter()
	vendorAPI.Use(authMW.Authenticate)
	vendorAPI.Use(middleware.RequireRole(domain.RoleVendor))

	vendorAPI.HandleFunc("/verification/start", verificationHandler.Start).Methods("POST")
	vendorAPI.HandleFunc("/verification/status", verificationHandler.Status).Methods("GET")
	vendorAPI.HandleFunc("/verification/identity", verificationHandler.SubmitIdentity).Methods("POST")
	vendorAPI.HandleFunc("/verification/identity/otp", verificationHandler.VerifyIdentityOTP).Methods("POST")
	vendorAPI.HandleFunc("/verification/bank", verificationHandler.SubmitBank).Methods("POST")
	vendorAPI.HandleFunc("/verification/bank/otp", verificationHandler.VerifyBankOTP).Methods("POST")
	vendorAPI.HandleFunc("/verification/store/complete", verificationHandler.CompleteStoreSetup).Methods("POST")
	vendorAPI.HandleFunc("/verification/store/skip", verificationHandler.SkipStoreSetup).Methods("POST")
	vendorAPI.HandleFunc("/verification/student", verificationHandler.SubmitStudent).Methods("POST")
	vendorAPI.HandleFunc("/verification/attempts", verificationHandler.Attempts).Methods("GET")

	vendorAPI.HandleFunc("/wallet", walletHandler.Get).Methods("GET")
	vendorAPI.HandleFunc("/wallet/balance", walletHandler.Balance).Methods("GET")
	vendorAPI.HandleFunc("/wallet/transactions", walletHandler.Transactions).Methods("GET")
	vendorAPI.HandleFunc("/wallet/payouts", walletHandler.Payout).Methods("POST")

	// Admin routes
	adminAPI := api.PathPrefix("/admin").Subrouter()
	adminAPI.Use(authMW.Authenticate)
	adminAPI.Use(middleware.RequireRole(domain.RoleAdmin))

	adminAPI.HandleFunc("/verifications", adminHandler.ListVerifications).Methods("GET")
	adminAPI.HandleFunc("/verifications/{id}", adminHandler.GetVerification).Methods("GET")
	adminAPI.HandleFunc("/verifications/{id}/attempts", adminHandler.VendorAttempts).Methods("GET")
	adminAPI.HandleFunc("/verifications/{id}/approve", adminHandler.Approve).Methods("POST")
	adminAPI.HandleFunc("/verifications/{id}/reject", adminHandler.Reject).Methods("POST")
	adminAPI.HandleFunc("/verifications/{id}/suspend", adminHandler.Suspend).Methods("POST")
	adminAPI.HandleFunc("/verifications/{id}/student-review", adminHandler.ReviewStudent).Methods("POST")
	adminAPI.HandleFunc("/refunds", adminHandler.ListRefunds).Methods("GET")
	adminAPI.HandleFunc("/refunds/{id}/process", adminHandler.ProcessRefund).Methods("POST")
	adminAPI.HandleFunc("/orders/{id}/paid", adminHandler.OrderPaid).Methods("POST")
	adminAPI.HandleFunc("/orders/{id}/delivered", adminHandler.OrderDelivered).Methods("POST")

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Info("API server started", logger.Fields{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", logger.Fields{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down API server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", logger.Fields{"error": err.Error()})
	}

	log.Info("API server stopped gracefully", nil)
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	_ = r
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"api"}`))
}

func readyCheck(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not ready","reason":"database unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready","service":"api"}`))
	}
}
