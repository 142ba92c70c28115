package backend

import (
	"fmt"

	"viaggi/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.RemoteBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.RemoteBackend)
	}
	mode := PersistMode(appConfig.PersistMode)
	if !mode.IsValid() {
		return Config{}, fmt.Errorf("invalid persist mode in config: %s", appConfig.PersistMode)
	}

	return Config{
		Type:        backendType,
		PersistMode: mode,

		Endpoint: appConfig.RemoteEndpoint,
		Timeout:  appConfig.RemoteTimeout,
		SeedFile: appConfig.MemorySeedFile,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleRowCacheTTL:        appConfig.GoogleRowCacheTTL,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case AppScriptBackend:
		if c.Endpoint == "" {
			return fmt.Errorf("endpoint is required for appscript backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			return fmt.Errorf("either GoogleServiceAccountFile or GoogleServiceAccountJSON must be provided for sheets backend")
		}
	case MemoryBackend:
		// an empty seed file starts every account fresh
	}

	if c.PersistMode == QueuePersist && c.AMQPURL == "" {
		return fmt.Errorf("AMQP URL is required for queue persistence")
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, AppScriptBackend, SheetsBackend}
}
