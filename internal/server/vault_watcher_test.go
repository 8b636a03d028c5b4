package server

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"resumecraft/internal/config"
)

// MockVaultClient serves secrets from a map and can be updated mid-test
type MockVaultClient struct {
	mu      sync.Mutex
	secrets map[string]*config.VaultSecret
	err     error
}

func (m *MockVaultClient) GetSecretV2(path string) (*config.VaultSecret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if secret, exists := m.secrets[path]; exists {
		return secret, nil
	}
	return nil, nil
}

func (m *MockVaultClient) set(path string, secret *config.VaultSecret) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[path] = secret
}

type keyRecorder struct {
	mu    sync.Mutex
	calls [][]string
	errs  []error
}

func (k *keyRecorder) callback(keys []string, err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.calls = append(k.calls, keys)
	k.errs = append(k.errs, err)
}

func TestVaultWatcherCheckForUpdates(t *testing.T) {
	mockClient := &MockVaultClient{
		secrets: map[string]*config.VaultSecret{
			"secret/data/keys": {Data: map[string]any{"keys": "a"}, Version: 2},
		},
	}
	vw := NewVaultWatcher(mockClient, "secret/data/keys", time.Minute, func([]string, error) {}, nil)

	_, changed, err := vw.checkForUpdates()
	if err != nil {
		t.Fatalf("checkForUpdates failed: %v", err)
	}
	if !changed {
		t.Error("Expected change to be detected")
	}

	_, changed, err = vw.checkForUpdates()
	if err != nil {
		t.Fatalf("checkForUpdates failed: %v", err)
	}
	if changed {
		t.Error("Expected no change to be detected")
	}
}

func TestVaultWatcherCheckForUpdatesMissingSecret(t *testing.T) {
	vw := NewVaultWatcher(&MockVaultClient{secrets: map[string]*config.VaultSecret{}},
		"secret/data/missing", time.Minute, func([]string, error) {}, nil)

	if _, _, err := vw.checkForUpdates(); err == nil {
		t.Error("Expected error for missing secret, got nil")
	}
}

func TestVaultWatcherPoll(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]any
		wantKeys   []string
		wantErr    bool
		wantReload int
	}{
		{
			name:       "new keys are reported",
			data:       map[string]any{"keys": "key-one, key-two"},
			wantKeys:   []string{"key-one", "key-two"},
			wantReload: 1,
		},
		{
			name:    "empty keys are rejected",
			data:    map[string]any{"keys": " , "},
			wantErr: true,
		},
		{
			name:    "missing field is rejected",
			data:    map[string]any{"other": "x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &MockVaultClient{
				secrets: map[string]*config.VaultSecret{
					"secret/data/keys": {Data: map[string]any{"keys": "old"}, Version: 1},
				},
			}
			recorder := &keyRecorder{}
			vw := NewVaultWatcher(mockClient, "secret/data/keys", time.Minute, recorder.callback, nil)
			vw.lastVersion = 1

			// Same version: nothing happens
			vw.poll()
			if len(recorder.calls) != 0 {
				t.Fatalf("Expected no callback for unchanged version, got %d", len(recorder.calls))
			}

			mockClient.set("secret/data/keys", &config.VaultSecret{Data: tt.data, Version: 2})
			vw.poll()

			if len(recorder.calls) != 1 {
				t.Fatalf("Expected 1 callback, got %d", len(recorder.calls))
			}
			if tt.wantErr {
				if recorder.errs[0] == nil {
					t.Error("Expected callback error, got nil")
				}
				return
			}
			if recorder.errs[0] != nil {
				t.Fatalf("Expected no callback error, got %v", recorder.errs[0])
			}
			if fmt.Sprint(recorder.calls[0]) != fmt.Sprint(tt.wantKeys) {
				t.Errorf("Expected keys %v, got %v", tt.wantKeys, recorder.calls[0])
			}
			if got := vw.Status()["reloads"]; got != tt.wantReload {
				t.Errorf("Expected %d reloads, got %v", tt.wantReload, got)
			}
		})
	}
}

func TestVaultWatcherPollReadError(t *testing.T) {
	mockClient := &MockVaultClient{
		secrets: map[string]*config.VaultSecret{},
		err:     fmt.Errorf("vault sealed"),
	}
	recorder := &keyRecorder{}
	vw := NewVaultWatcher(mockClient, "secret/data/keys", time.Minute, recorder.callback, nil)

	vw.poll()
	if len(recorder.calls) != 0 {
		t.Errorf("Expected read errors to skip the callback, got %d calls", len(recorder.calls))
	}
}

func TestVaultWatcherStartStop(t *testing.T) {
	mockClient := &MockVaultClient{
		secrets: map[string]*config.VaultSecret{
			"secret/data/keys": {Data: map[string]any{"keys": "a"}, Version: 3},
		},
	}
	vw := NewVaultWatcher(mockClient, "secret/data/keys", time.Hour, func([]string, error) {}, nil)

	if err := vw.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := vw.Start(); err == nil {
		t.Error("Expected error starting a running watcher, got nil")
	}

	status := vw.Status()
	if status["running"] != true {
		t.Errorf("Expected running status, got %v", status["running"])
	}
	if status["last_version"] != int64(3) {
		t.Errorf("Expected last_version 3, got %v", status["last_version"])
	}

	if err := vw.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := vw.Stop(); err != nil {
		t.Errorf("Expected second Stop to be a no-op, got %v", err)
	}
}

func TestVaultWatcherRejectsZeroInterval(t *testing.T) {
	vw := NewVaultWatcher(&MockVaultClient{secrets: map[string]*config.VaultSecret{}},
		"secret/data/keys", 0, func([]string, error) {}, nil)
	if err := vw.Start(); err == nil {
		t.Error("Expected error for zero poll interval, got nil")
	}
}
