package configuration

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type MongoConfig struct {
	Uri                     string `json:"uri"`
	Database                string `json:"database"`
	UsersCollection         string `json:"usersCollection"`
	ConversationsCollection string `json:"conversationsCollection"`
	MessagesCollection      string `json:"messagesCollection"`
}

type ServerConfig struct {
	AppPort     int    `json:"app_port"`
	SocketRoute string `json:"socket_route"`
}

type AuthConfig struct {
	Secret        string `json:"secret"`
	TokenTTLHours int    `json:"token_ttl_hours"`
}

type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
}

type RateLimitConfig struct {
	WindowMs int `json:"window_ms"`
	Max      int `json:"max"`
}

type Config struct {
	Server    ServerConfig    `json:"server"`
	Mongo     MongoConfig     `json:"mongo"`
	Auth      AuthConfig      `json:"auth"`
	CORS      CORSConfig      `json:"cors"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

// LoadConfig reads the JSON config file and overlays environment
// variables (loaded from .env when present). Env wins over file so
// deployments can keep secrets out of the tree.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	config := defaultConfig()

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(file, config); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.AppPort = port
		}
	}
	if v := os.Getenv("MONGO_URL"); v != "" {
		config.Mongo.Uri = v
	}
	if v := os.Getenv("SECRET"); v != "" {
		config.Auth.Secret = v
	}

	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			AppPort:     5000,
			SocketRoute: "ws",
		},
		Mongo: MongoConfig{
			Uri:                     "mongodb://localhost:27017",
			Database:                "chat",
			UsersCollection:         "users",
			ConversationsCollection: "conversations",
			MessagesCollection:      "messages",
		},
		Auth: AuthConfig{
			TokenTTLHours: 72,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		RateLimit: RateLimitConfig{
			WindowMs: 60000,
			Max:      120,
		},
	}
}
