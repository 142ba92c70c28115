package backend

import (
	"context"
	"fmt"
	"log/slog"

	"viaggi/internal/amqp"
	"viaggi/internal/cache"
	"viaggi/internal/remote"
	"viaggi/internal/remote/appscript"
	"viaggi/internal/remote/google"
	"viaggi/internal/remote/memory"
	"viaggi/internal/services"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateRemote implements Factory.CreateRemote
func (f *DefaultFactory) CreateRemote(ctx context.Context, config Config) (*RemoteResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case AppScriptBackend:
		return f.createAppScriptRemote(config)
	case SheetsBackend:
		return f.createSheetsRemote(ctx, config)
	case MemoryBackend:
		return f.createMemoryRemote(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createAppScriptRemote(config Config) (*RemoteResult, error) {
	cli, err := appscript.New(config.Endpoint, config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Apps Script client: %w", err)
	}
	f.logger.Info("Initialized Apps Script remote", "timeout", config.Timeout)
	return &RemoteResult{Remote: cli}, nil
}

func (f *DefaultFactory) createSheetsRemote(ctx context.Context, config Config) (*RemoteResult, error) {
	cli, err := google.New(ctx, google.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		SheetName:          config.GoogleSheetName,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
		RowCacheTTL:        config.GoogleRowCacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets remote", "sheet", config.GoogleSheetName)
	return &RemoteResult{
		Remote: cli,
		Caches: map[string]cache.Cleaner{"sheets_rows": cli.RowCache()},
	}, nil
}

func (f *DefaultFactory) createMemoryRemote(config Config) (*RemoteResult, error) {
	store, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory remote: %w", err)
	}
	f.logger.Info("Initialized memory remote", "seed_file", config.SeedFile)
	return &RemoteResult{Remote: store}, nil
}

// CreatePersister implements Factory.CreatePersister. Queue mode connects
// to the broker; the sync worker then writes to the remote store.
func (f *DefaultFactory) CreatePersister(_ context.Context, config Config, r remote.SnapshotWriter) (*PersisterResult, error) {
	switch config.PersistMode {
	case DirectPersist, "":
		return &PersisterResult{Persister: services.DirectPersister{Remote: r}}, nil
	case QueuePersist:
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		f.logger.Info("Initialized AMQP client",
			"exchange", config.AMQPExchange,
			"queue", config.AMQPQueue)
		return &PersisterResult{
			Persister: services.QueuePersister{Publisher: client},
			Cleanup:   client.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported persist mode: %s", config.PersistMode)
	}
}
