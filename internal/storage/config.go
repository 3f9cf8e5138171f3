package storage

import "os"

// Backend selects the persistence implementation
type Backend string

const (
	BackendDynamoLocal Backend = "dynamo-local"
	BackendDynamoAWS   Backend = "dynamo-aws"
	BackendPostgres    Backend = "postgres"
	BackendMemory      Backend = "memory"
)

// Config holds persistence configuration
type Config struct {
	Backend        Backend
	DynamoEndpoint string // for dynamo-local
	DynamoRegion   string
	CallsTable     string
	MessagesTable  string
	PostgresDSN    string
}

// LoadConfig loads persistence config from environment
func LoadConfig() Config {
	backend := Backend(getEnv("STORE_BACKEND", "memory"))
	switch backend {
	case BackendDynamoLocal, BackendDynamoAWS, BackendPostgres:
	default:
		backend = BackendMemory
	}

	return Config{
		Backend:        backend,
		DynamoEndpoint: getEnv("DYNAMO_ENDPOINT", "http://localhost:8000"),
		DynamoRegion:   getEnv("DYNAMO_REGION", "eu-central-1"),
		CallsTable:     getEnv("DYNAMO_CALLS_TABLE", "careline-call-requests"),
		MessagesTable:  getEnv("DYNAMO_MESSAGES_TABLE", "careline-messages"),
		PostgresDSN:    getEnv("POSTGRES_DSN", "postgres://localhost:5432/careline"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
