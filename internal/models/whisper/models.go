package whisper

import (
	"os"
	"path/filepath"
)

// ModelInfo holds metadata for a whisper model
type ModelInfo struct {
	ID           string // model identifier (e.g., "base.en")
	Name         string // display name (e.g., "Base English")
	Filename     string // file name (e.g., "ggml-base.en.bin")
	Size         string // human readable size
	Multilingual bool   // true if supports multiple languages
}

// ggml models as published in huggingface.co/ggerganov/whisper.cpp
var models = []ModelInfo{
	// english-only models (faster, smaller)
	{ID: "tiny.en", Name: "Tiny English", Filename: "ggml-tiny.en.bin", Size: "75MB"},
	{ID: "base.en", Name: "Base English", Filename: "ggml-base.en.bin", Size: "142MB"},
	{ID: "small.en", Name: "Small English", Filename: "ggml-small.en.bin", Size: "466MB"},
	{ID: "medium.en", Name: "Medium English", Filename: "ggml-medium.en.bin", Size: "1.5GB"},

	// multilingual models
	{ID: "tiny", Name: "Tiny", Filename: "ggml-tiny.bin", Size: "75MB", Multilingual: true},
	{ID: "base", Name: "Base", Filename: "ggml-base.bin", Size: "142MB", Multilingual: true},
	{ID: "small", Name: "Small", Filename: "ggml-small.bin", Size: "466MB", Multilingual: true},
	{ID: "medium", Name: "Medium", Filename: "ggml-medium.bin", Size: "1.5GB", Multilingual: true},
	{ID: "large-v3", Name: "Large V3", Filename: "ggml-large-v3.bin", Size: "3GB", Multilingual: true},
	{ID: "large-v3-turbo", Name: "Large V3 Turbo", Filename: "ggml-large-v3-turbo.bin", Size: "1.6GB", Multilingual: true},
}

var modelByID = func() map[string]ModelInfo {
	m := make(map[string]ModelInfo, len(models))
	for _, model := range models {
		m[model.ID] = model
	}
	return m
}()

// ModelsDirEnv overrides the models directory when set.
const ModelsDirEnv = "HYPRMINUTES_MODELS_DIR"

// GetModelsDir returns the directory where whisper models are looked up.
func GetModelsDir() (string, error) {
	if dir := os.Getenv(ModelsDirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "hyprminutes", "models", "whisper"), nil
}

// GetModelPath returns the full path to a model file.
// Returns empty string if model ID is unknown.
func GetModelPath(modelID string) string {
	info, ok := modelByID[modelID]
	if !ok {
		return ""
	}
	dir, err := GetModelsDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, info.Filename)
}

// GetModel returns info for a model by ID, nil if unknown.
func GetModel(modelID string) *ModelInfo {
	info, ok := modelByID[modelID]
	if !ok {
		return nil
	}
	return &info
}

// ListModels returns all known whisper models
func ListModels() []ModelInfo {
	result := make([]ModelInfo, len(models))
	copy(result, models)
	return result
}

// IsInstalled returns true if the model file exists and is non-empty
func IsInstalled(modelID string) bool {
	path := GetModelPath(modelID)
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// ListInstalled returns IDs of all installed models
func ListInstalled() []string {
	var installed []string
	for _, m := range models {
		if IsInstalled(m.ID) {
			installed = append(installed, m.ID)
		}
	}
	return installed
}
