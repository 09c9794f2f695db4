package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"storefront/internal/models"
)

var AppEnv Config

type Config struct {
	MongoURI         string
	DBName           string
	JWTSecret        string
	SessionTTL       time.Duration
	DeliveryFee      models.Money
	TelegramBotToken string
	TelegramChatID   string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:         getEnvOrDefault("MONGO_URI", ""),
		DBName:           getEnvOrDefault("DB_NAME", "storefront"),
		JWTSecret:        getEnvOrDefault("JWT_SECRET", ""),
		SessionTTL:       getDurationEnv("SESSION_TTL", 14, 24*time.Hour),
		DeliveryFee:      getMoneyEnv("DELIVERY_FEE", "5000"),
		TelegramBotToken: getEnvOrDefault("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnvOrDefault("TELEGRAM_CHAT_ID", ""),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getMoneyEnv(key, defaultValue string) models.Money {
	raw := getEnvOrDefault(key, defaultValue)
	amount, err := models.MoneyFromString(raw)
	if err != nil {
		log.Printf("invalid %s=%q, falling back to %s", key, raw, defaultValue)
		amount, _ = models.MoneyFromString(defaultValue)
	}
	return amount
}
