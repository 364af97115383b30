package config

import (
	"encoding/json"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/carlogapp/carlog-api/models"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string

	// Single-user deployment: the one identity the API serves, with a
	// bcrypt hash of its password.
	UserEmail    string
	UserName     string
	PasswordHash string

	// Secret for signing short-lived invoice share links.
	LinkSecret string

	// DeletePolicy decides what happens to a vehicle's maintenance
	// entries on delete: "cascade" (default) or "block".
	DeletePolicy string
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger, err := setLogger(os.Getenv("APP_ENV"))
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:          os.Getenv("DB_URI"),
		DatabaseName: os.Getenv("DB_NAME"),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         os.Getenv("PORT"),
		UserEmail:    os.Getenv("CARLOG_USER_EMAIL"),
		UserName:     os.Getenv("CARLOG_USER_NAME"),
		PasswordHash: os.Getenv("CARLOG_PASSWORD_HASH"),
		LinkSecret:   os.Getenv("CARLOG_LINK_SECRET"),
		DeletePolicy: os.Getenv("CARLOG_DELETE_POLICY"),
	}

}

func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "development":
		return zap.NewDevelopment()
	case "production":
		return zap.NewProduction()
	default:
		return zap.NewExample(), nil
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(models.ErrorMessageResponse{Response: models.MessageError{
		Message: message,
		Error:   err.Error(),
	}})
	w.Write(b)
}
