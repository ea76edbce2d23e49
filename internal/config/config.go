package config

import (
	"os"

	"github.com/joho/godotenv"

	"msitushield/internal/models"
)

// Load returns the server configuration from environment variables.
// A .env file in the working directory is read first if present.
func Load() models.Config {
	godotenv.Load()

	return models.Config{
		Port:        getEnv("PORT", "8000"),
		DBPath:      getEnv("DB_PATH", "msitushield.db"),
		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
		FrontendURL: getEnv("FRONTEND_URL", "*"),
		AuthEnabled: getEnv("AUTH_ENABLED", "true") == "true",
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
