package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viaggi/internal/config"
	"viaggi/internal/remote/appscript"
	"viaggi/internal/remote/memory"
	"viaggi/internal/services"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		RemoteBackend:  config.BackendAppScript,
		PersistMode:    config.PersistQueue,
		RemoteEndpoint: "https://example.com/exec",
		RemoteTimeout:  5 * time.Second,
		AMQPURL:        "amqp://localhost:5672/",
	}

	got, err := FromAppConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, AppScriptBackend, got.Type)
	assert.Equal(t, QueuePersist, got.PersistMode)
	assert.Equal(t, 5*time.Second, got.Timeout)

	_, err = FromAppConfig(&config.Config{RemoteBackend: "sqlite", PersistMode: "direct"})
	assert.Error(t, err)
	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"appscript without endpoint", Config{Type: AppScriptBackend}, true},
		{"sheets without credentials", Config{Type: SheetsBackend, GoogleSpreadsheetID: "x"}, true},
		{"sheets with json credentials", Config{Type: SheetsBackend, GoogleSpreadsheetID: "x", GoogleServiceAccountJSON: "{}"}, false},
		{"queue without url", Config{Type: MemoryBackend, PersistMode: QueuePersist}, true},
		{"unknown type", Config{Type: "ftp"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryRemoteWithSeed(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(`{"acct":{"trips":[],"categories":[{"id":"cat-1","name":"Cibo","icon":"🍽️"}]}}`), 0644))

	res, err := NewFactory(nil).CreateRemote(context.Background(), Config{Type: MemoryBackend, SeedFile: seed})
	require.NoError(t, err)
	require.IsType(t, &memory.Store{}, res.Remote)

	a, err := res.Remote.Fetch(context.Background(), "acct")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "Cibo", a.Categories[0].Name)
}

func TestCreateAppScriptRemote(t *testing.T) {
	res, err := NewFactory(nil).CreateRemote(context.Background(), Config{
		Type:     AppScriptBackend,
		Endpoint: "https://script.google.com/macros/s/abc/exec",
	})
	require.NoError(t, err)
	assert.IsType(t, &appscript.Client{}, res.Remote)
	assert.Nil(t, res.Cleanup)
}

func TestCreateDirectPersister(t *testing.T) {
	r := memory.New()
	res, err := NewFactory(nil).CreatePersister(context.Background(), Config{PersistMode: DirectPersist}, r)
	require.NoError(t, err)
	assert.Equal(t, services.DirectPersister{Remote: r}, res.Persister)
}
