package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompt(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create prompt file %s: %v", name, err)
	}
	return path
}

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()
	systemFile := writePrompt(t, tempDir, "system.rescore.md", "Score strictly")
	userFile := writePrompt(t, tempDir, "user.rescore.md", "  Resume: %s\nJob: %s  \n")

	config := &Config{
		AI: AIConfig{
			Rescore: OperationAIConfig{
				Prompts: PromptConfig{SystemFile: systemFile, UserFile: userFile},
			},
		},
	}

	require.NoError(t, config.LoadPromptsFromFiles())

	loaded := GetPromptsForOperation(OpRescore)
	assert.Equal(t, "Score strictly", loaded.System)
	assert.Equal(t, "Resume: %s\nJob: %s", loaded.User, "content is trimmed")

	// Other operations have nothing loaded
	assert.Equal(t, LoadedPrompts{}, GetPromptsForOperation(OpGenerate))

	// File paths are preserved
	assert.Equal(t, systemFile, config.AI.Rescore.Prompts.SystemFile)
	assert.Equal(t, []string{systemFile, userFile}, config.PromptFiles())
}

func TestLoadPromptsFromFiles_FailureKeepsPreviousSet(t *testing.T) {
	tempDir := t.TempDir()
	systemFile := writePrompt(t, tempDir, "system.integrate.md", "Weave keywords in")

	config := &Config{AI: AIConfig{Integrate: OperationAIConfig{Prompts: PromptConfig{SystemFile: systemFile}}}}
	require.NoError(t, config.LoadPromptsFromFiles())

	require.NoError(t, os.WriteFile(systemFile, []byte("   "), 0600))
	err := config.LoadPromptsFromFiles()
	assert.Error(t, err)
	assert.Equal(t, "Weave keywords in", GetPromptsForOperation(OpIntegrate).System)
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()
	validFile := writePrompt(t, tempDir, "valid.md", "Valid content")

	config := &Config{
		AI: AIConfig{
			Generate: OperationAIConfig{Prompts: PromptConfig{SystemFile: validFile}},
		},
	}
	if err := config.validatePromptFiles(); err != nil {
		t.Errorf("Expected validation to pass for valid file, got error: %v", err)
	}

	config.AI.ParseProfile.Prompts.UserFile = filepath.Join(tempDir, "nonexistent.md")
	err := config.validatePromptFiles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parseProfile")
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name    string
		setup   func() string
		want    string
		wantErr bool
	}{
		{
			name:  "valid file",
			setup: func() string { return writePrompt(t, tempDir, "test.md", "Test prompt content") },
			want:  "Test prompt content",
		},
		{
			name:    "empty file",
			setup:   func() string { return writePrompt(t, tempDir, "empty.md", "") },
			wantErr: true,
		},
		{
			name:    "missing file",
			setup:   func() string { return filepath.Join(tempDir, "nonexistent.md") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loadPromptFromFile(tt.setup(), "system", OpExtract)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPromptWatcher_ReloadsOnChange(t *testing.T) {
	tempDir := t.TempDir()
	userFile := writePrompt(t, tempDir, "user.generate.md", "first version")

	config := &Config{AI: AIConfig{Generate: OperationAIConfig{Prompts: PromptConfig{UserFile: userFile}}}}
	require.NoError(t, config.LoadPromptsFromFiles())

	reloaded := make(chan error, 4)
	watcher := NewPromptWatcher(config, 20*time.Millisecond, func(err error) { reloaded <- err }, nil)
	require.NoError(t, watcher.Start())
	t.Cleanup(func() { _ = watcher.Stop() })
	assert.True(t, watcher.IsRunning())

	// Atomic replace, with a modification time that moves even on coarse filesystems
	staged := writePrompt(t, tempDir, "staged.tmp", "second version")
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(staged, later, later))
	require.NoError(t, os.Rename(staged, userFile))

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Expected a prompt reload after the file changed")
	}
	assert.Equal(t, "second version", GetPromptsForOperation(OpGenerate).User)

	require.NoError(t, watcher.Stop())
	assert.False(t, watcher.IsRunning())
}

func TestPromptWatcher_NoFiles(t *testing.T) {
	watcher := NewPromptWatcher(&Config{}, 0, nil, nil)
	require.NoError(t, watcher.Start())
	assert.False(t, watcher.IsRunning())
	assert.NoError(t, watcher.Stop())
}
