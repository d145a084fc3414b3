package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	PORT           string
	BASE_URL       string
	DB_PATH        string
	DATABASE_URL   string
	JWT_SECRET     string
	REFRESH_SECRET string
	STRIPE_API     string
	KAFKA_ADDRESS  string
	ES_URL         string
	ES_USER        string
	ES_PASSWORD    string
	STATIC_DIR     string
	LOG_LEVEL      string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		PORT:           getenv("PORT", "8080"),
		BASE_URL:       getenv("BASE_URL", "http://127.0.0.1:8080"),
		DB_PATH:        getenv("DB_PATH", "store.db"),
		DATABASE_URL:   os.Getenv("DATABASE_URL"),
		JWT_SECRET:     os.Getenv("JWT_SECRET"),
		REFRESH_SECRET: os.Getenv("REFRESH_SECRET"),
		STRIPE_API:     os.Getenv("STRIPE_API"),
		KAFKA_ADDRESS:  os.Getenv("KAFKA_ADDRESS"),
		ES_URL:         os.Getenv("ES_URL"),
		ES_USER:        os.Getenv("ES_USER"),
		ES_PASSWORD:    os.Getenv("ES_PASSWORD"),
		STATIC_DIR:     getenv("STATIC_DIR", "static"),
		LOG_LEVEL:      getenv("LOG_LEVEL", "info"),
	}

	return config, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
