package config

import (
	"os"      // For environment variables
	"strconv" // For string to number conversion

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	JWTSecret  string // JWT secret key
	RedisAddr  string // Redis server address
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment

	BenchmarkRewardRate float64 // Tokens per benchmark score unit
	MiningRewardRate    float64 // Tokens per mined coin
	MinimumWithdrawal   float64 // Smallest withdrawable token amount

	TransferTimeoutSeconds       int // Deadline for the external transfer call
	SweepIntervalSeconds         int // How often the distribution sweep runs
	SweepBatchSize               int // Max unsettled sessions per sweep run
	PoolRecomputeIntervalSeconds int // How often pool aggregates are recomputed
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:    os.Getenv("APP_PORT"),          // Application port
		DBUser:     os.Getenv("DB_USER"),           // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),       // Database password
		DBHost:     os.Getenv("DB_HOST"),           // Database host
		DBPort:     os.Getenv("DB_PORT"),           // Database port
		DBName:     os.Getenv("DB_NAME"),           // Database name
		JWTSecret:  os.Getenv("JWT_SECRET"),        // JWT secret key
		RedisAddr:  os.Getenv("REDIS_ADDR"),        // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),        // Redis password
		RedisDB:    redisDB,                        // Redis database number
		IsProd:     os.Getenv("IS_PROD") == "true", // Is production environment

		BenchmarkRewardRate: envFloat("BENCHMARK_REWARD_RATE", 0.5), // Benchmark base rate
		MiningRewardRate:    envFloat("MINING_REWARD_RATE", 1.0),    // Mining token rate
		MinimumWithdrawal:   envFloat("MINIMUM_WITHDRAWAL", 100.0),  // Withdrawal floor

		TransferTimeoutSeconds:       envInt("TRANSFER_TIMEOUT_SECONDS", 30),          // Transfer deadline
		SweepIntervalSeconds:         envInt("SWEEP_INTERVAL_SECONDS", 60),            // Sweep cadence
		SweepBatchSize:               envInt("SWEEP_BATCH_SIZE", 50),                  // Sweep batch bound
		PoolRecomputeIntervalSeconds: envInt("POOL_RECOMPUTE_INTERVAL_SECONDS", 3600), // Pool recompute cadence
	}
}

// envFloat reads a float environment variable with a fallback default
func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f // Parsed value
		}
	}
	return def // Documented default
}

// envInt reads an integer environment variable with a fallback default
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n // Parsed value
		}
	}
	return def // Documented default
}
