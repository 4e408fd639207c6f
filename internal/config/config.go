package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	AnthropicKey   string
	AnthropicModel string

	JWTSecret string

	// AI call budget: one enrichment / narrative call gets AIMaxAttempts
	// tries of AITimeout each, then the fallback path fires.
	AITimeout     time.Duration
	AIMaxAttempts int

	// Timeline policy. A project goes Off Track when it has at least
	// OverdueOffTrack overdue tasks, or when the high-risk share of its
	// tasks exceeds HighRiskOffTrackRatio.
	OverdueOffTrack       int
	HighRiskOffTrackRatio float64

	// How many tasks the daily report keeps in its priority list.
	ReportPriorityLimit int

	// Server-side Trello credentials, used when the import request
	// does not carry its own.
	TrelloKey   string
	TrelloToken string
}

func Load() *Config {
	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	model := os.Getenv("ANTHROPIC_MODEL")
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "SUPER_SECRET_KEY_CHANGE_ME" // dev fallback
	}

	return &Config{
		Port: port,

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     envInt("DB_PORT", 5432),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel: model,

		JWTSecret: secret,

		AITimeout:     time.Duration(envInt("AI_TIMEOUT_SECONDS", 30)) * time.Second,
		AIMaxAttempts: envInt("AI_MAX_ATTEMPTS", 2),

		OverdueOffTrack:       envInt("TIMELINE_OVERDUE_OFFTRACK", 3),
		HighRiskOffTrackRatio: envFloat("TIMELINE_HIGHRISK_OFFTRACK_RATIO", 0.3),

		ReportPriorityLimit: envInt("REPORT_PRIORITY_LIMIT", 5),

		TrelloKey:   os.Getenv("TRELLO_API_KEY"),
		TrelloToken: os.Getenv("TRELLO_TOKEN"),
	}
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}
