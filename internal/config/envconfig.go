package config

import (
	"os"
	"strconv"
)

type envConfig struct {
	LogLevel       string
	APIBaseURL     string
	HTTPTimeoutSec int
	DownloadDir    string
	EmailTo        string
	EmailFrom      string
	AWSRegion      string
}

func NewEnvironmentConfig() *envConfig {
	return &envConfig{
		LogLevel:       getEnvString("LOG_LEVEL", "INFO"),
		APIBaseURL:     getEnvString("API_BASE_URL", "http://localhost:8080/api"),
		HTTPTimeoutSec: getEnvInt("HTTP_TIMEOUT_SECONDS", 30),
		DownloadDir:    getEnvString("DOWNLOAD_DIR", "."),
		EmailTo:        getEnvString("EMAIL_TO", ""),
		EmailFrom:      getEnvString("EMAIL_FROM", ""),
		AWSRegion:      getEnvString("AWS_REGION", "ap-south-1"),
	}
}

// helper function to read an environment or return a default value
func getEnvString(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

// helper function to read an environment or return a default value
func getEnvInt(key string, defaultVal int) int {
	val, err := strconv.Atoi(getEnvString(key, strconv.Itoa(defaultVal)))
	if err == nil {
		return val
	}

	return defaultVal
}
