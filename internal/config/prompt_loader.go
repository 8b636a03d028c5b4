package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LoadPromptsFromFiles reads every configured prompt file and replaces the
// loaded prompt set. On error the previous set stays in place.
func (c *Config) LoadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	next := make(map[string]LoadedPrompts, len(Operations))
	for _, op := range Operations {
		section, err := c.operationSection(op)
		if err != nil {
			return err
		}

		var loaded LoadedPrompts
		if section.Prompts.SystemFile != "" {
			content, err := loadPromptFromFile(section.Prompts.SystemFile, "system", op)
			if err != nil {
				return fmt.Errorf("failed to load %s system prompt: %w", op, err)
			}
			loaded.System = content
		}
		if section.Prompts.UserFile != "" {
			content, err := loadPromptFromFile(section.Prompts.UserFile, "user", op)
			if err != nil {
				return fmt.Errorf("failed to load %s user prompt: %w", op, err)
			}
			loaded.User = content
		}
		next[op] = loaded
	}

	loadedPrompts.replace(next)
	logPromptLoadingSummary()
	return nil
}

// PromptFiles returns every configured prompt file path
func (c *Config) PromptFiles() []string {
	var files []string
	for _, op := range Operations {
		section, err := c.operationSection(op)
		if err != nil {
			continue
		}
		if section.Prompts.SystemFile != "" {
			files = append(files, section.Prompts.SystemFile)
		}
		if section.Prompts.UserFile != "" {
			files = append(files, section.Prompts.UserFile)
		}
	}
	return files
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, promptType, operation string) {
		if filePath == "" {
			return
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, operation, filePath))
			return
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, operation, absPath))
		}
	}

	for _, op := range Operations {
		section, err := c.operationSection(op)
		if err != nil {
			return err
		}
		validateFile(section.Prompts.SystemFile, "system", op)
		validateFile(section.Prompts.UserFile, "user", op)
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

// logPromptLoadingSummary logs a summary of loaded prompts
func logPromptLoadingSummary() {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	for _, op := range Operations {
		p := loadedPrompts.get(op)
		if p.System != "" {
			log.Printf("[CONFIG] %s system prompt: loaded from file", op)
		}
		if p.User != "" {
			log.Printf("[CONFIG] %s user prompt: loaded from file", op)
		}
	}

	if promptCount := loadedPrompts.count(); promptCount == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", promptCount)
	}

	log.Println("[CONFIG] ==========================================")
}
