package main

import (
	"context"                            // Context for Redis operations
	"log"                                // log package is needed for logging
	"mining_rewards/internal/api"        // Custom package for API handlers
	"mining_rewards/internal/config"     // Custom package for configuration
	"mining_rewards/internal/jobs"       // Periodic sweep and pool recompute
	"mining_rewards/internal/middleware" // Custom package for middleware
	"mining_rewards/internal/settlement" // Reward settlement core
	"mining_rewards/internal/ws"         // WebSocket telemetry channel
	"os"                                 // Signal handling
	"os/signal"                          // Signal handling
	"syscall"                            // Termination signals
	"time"                               // Durations

	"github.com/gin-contrib/cors"  // CORS for the browser mining client
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Set up database connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		logrus.Fatalf("failed to get database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Settlement core shared by HTTP handlers, the socket channel and the sweep
	settler := settlement.NewSettler(db, cfg.MiningRewardRate)
	executor := &settlement.SimulatedExecutor{Delay: 2 * time.Second}
	pipeline := settlement.NewWithdrawalPipeline(
		db,                             // Ledger store
		executor,                       // External transfer call
		settlement.HexAddressValidator, // Destination address check
		cfg.MinimumWithdrawal,          // Withdrawal floor
		time.Duration(cfg.TransferTimeoutSeconds)*time.Second, // Transfer deadline
	)

	// Periodic jobs share the process and coordinate only through the store
	stop := make(chan struct{})
	sweeper := jobs.NewSweeper(db, redisClient, settler, cfg.MiningRewardRate, cfg.SweepBatchSize)
	go sweeper.Start(time.Duration(cfg.SweepIntervalSeconds)*time.Second, stop)
	recomputer := jobs.NewPoolRecomputer(db, redisClient, cfg)
	go recomputer.Start(time.Duration(cfg.PoolRecomputeIntervalSeconds)*time.Second, stop)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// The mining client runs in the browser on arbitrary origins
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Auth routes
	r.POST("/user", api.RegisterHandler(db))            // Registration endpoint
	r.GET("/user", api.LoginHandler(db, cfg.JWTSecret)) // Login endpoint

	// Public read endpoints
	r.GET("/leaderboard", api.GetLeaderboardHandler(db, redisClient)) // Top miners
	r.GET("/stats/pool", api.GetPoolStatsHandler(db, redisClient))    // Token pool snapshot

	// Mining routes (protected by JWT)
	miningGroup := r.Group("/mining")
	miningGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	miningGroup.POST("/session", api.StartSessionHandler(db))                           // Start a session
	miningGroup.PUT("/session/:id", api.UpdateSessionHandler(db, redisClient, settler)) // Cumulative telemetry update
	miningGroup.POST("/session/:id/stop", api.StopSessionHandler(db))                   // Finalize a session
	miningGroup.GET("/sessions", api.ListSessionsHandler(db))                           // Session history

	// Benchmark routes (protected by JWT)
	benchmarkGroup := r.Group("/benchmark")
	benchmarkGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	benchmarkGroup.POST("", api.SubmitBenchmarkHandler(db, redisClient, settler, cfg.BenchmarkRewardRate)) // Submit a run
	benchmarkGroup.GET("", api.ListBenchmarksHandler(db))                                                  // Benchmark history

	// Wallet routes (protected by JWT)
	walletGroup := r.Group("/wallet")
	walletGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	walletGroup.GET("", api.GetWalletHandler(db, redisClient))                    // Balance snapshot
	walletGroup.POST("/withdraw", api.WithdrawHandler(db, redisClient, pipeline)) // Withdrawal request
	walletGroup.GET("/transactions", api.GetTransactionHistoryHandler(db))        // Withdrawal history
	walletGroup.GET("/transactions/:id", api.GetTransactionHandler(db))           // Single transaction

	// WebSocket telemetry channel (protected by JWT, token via query param)
	hub := ws.NewHub()
	socketHandler := ws.NewHandler(hub, redisClient, settler)
	r.GET("/ws", middleware.JWTAuthMiddleware(cfg.JWTSecret), socketHandler.Serve)

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(db))
	adminGroup.GET("/users", api.ListUsersHandler(db, redisClient))               // List users endpoint
	adminGroup.GET("/transactions", api.ListTransactionsHandler(db, redisClient)) // List transactions endpoint

	// Run the server until a termination signal arrives
	go func() {
		log.Println("Server running on " + cfg.AppPort) // Log server start
		if err := r.Run(":" + cfg.AppPort); err != nil {
			logrus.Fatalf("failed to run server: %v", err)
		}
	}()

	// Block until a signal is received
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down...")
	close(stop)   // Stop the periodic jobs
	sqlDB.Close() // Close database connection
}
