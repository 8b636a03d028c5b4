package server

import (
	"fmt"
	"sync"
	"time"

	"resumecraft/internal/config"
	"resumecraft/internal/errors"
)

// VaultClientInterface is the part of the Vault client the watcher reads
type VaultClientInterface interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
}

// KeysReloadCallback receives the API keys of a new secret version, or the
// error that stopped them from being read
type KeysReloadCallback func(keys []string, err error)

// VaultWatcher polls the API key secret and reports each new version. An
// empty "keys" field is reported as an error so a bad write never locks
// every client out.
type VaultWatcher struct {
	mu sync.RWMutex

	client         VaultClientInterface
	secretPath     string
	pollInterval   time.Duration
	reloadCallback KeysReloadCallback
	logger         *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
	reloads     int
}

// NewVaultWatcher creates a watcher for the secret at secretPath
func NewVaultWatcher(client VaultClientInterface, secretPath string, pollInterval time.Duration, reloadCallback KeysReloadCallback, logger *errors.Logger) *VaultWatcher {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &VaultWatcher{
		client:         client,
		secretPath:     secretPath,
		pollInterval:   pollInterval,
		reloadCallback: reloadCallback,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start records the current version and begins polling
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	if vw.pollInterval <= 0 {
		return fmt.Errorf("vault watcher poll interval must be positive, got %s", vw.pollInterval)
	}

	// Keys of the current version were applied at startup
	if secret, err := vw.client.GetSecretV2(vw.secretPath); err == nil && secret != nil {
		vw.lastVersion = secret.Version
	}

	vw.running = true
	go vw.pollLoop()
	vw.logger.Info("Vault API key watcher started",
		"secret_path", vw.secretPath,
		"poll_interval", vw.pollInterval,
		"version", vw.lastVersion)
	return nil
}

// Stop stops polling
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	vw.logger.Info("Vault API key watcher stopped")
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			vw.poll()
		case <-vw.stopChan:
			return
		}
	}
}

// poll runs one check and hands new keys to the callback
func (vw *VaultWatcher) poll() {
	secret, changed, err := vw.checkForUpdates()
	if err != nil {
		vw.logger.LogError(err, "Failed to check Vault for API key updates")
		return
	}
	if !changed {
		return
	}

	keys, err := keysFromSecret(secret, vw.secretPath)
	if err != nil {
		vw.logger.LogError(err, "Ignoring API key secret version", "version", secret.Version)
		vw.reloadCallback(nil, err)
		return
	}

	vw.mu.Lock()
	vw.reloads++
	vw.mu.Unlock()
	vw.logger.Info("API key secret changed, reloading keys",
		"version", secret.Version,
		"count", len(keys))
	vw.reloadCallback(keys, nil)
}

// checkForUpdates reads the secret and reports whether its version is newer
// than the last one seen
func (vw *VaultWatcher) checkForUpdates() (*config.VaultSecret, bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		return nil, false, fmt.Errorf("secret %s not found", vw.secretPath)
	}

	vw.mu.Lock()
	defer vw.mu.Unlock()
	if secret.Version > vw.lastVersion {
		vw.lastVersion = secret.Version
		return secret, true, nil
	}
	return secret, false, nil
}

func keysFromSecret(secret *config.VaultSecret, path string) ([]string, error) {
	raw, ok := secret.Data["keys"].(string)
	if !ok {
		return nil, fmt.Errorf("secret %s has no string field keys", path)
	}
	keys := config.ParseAPIKeys(raw)
	if len(keys) == 0 {
		return nil, fmt.Errorf("secret %s holds no API keys", path)
	}
	return keys, nil
}

// Status returns the watcher state for the stats endpoint
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
		"reloads":       vw.reloads,
	}
}
