package provider

import "github.com/leonardotrapani/hyprminutes/internal/models/whisper"

// WhisperCppProvider implements Provider for local whisper.cpp transcription
type WhisperCppProvider struct{}

func (p *WhisperCppProvider) Name() string {
	return ProviderWhisperCpp
}

func (p *WhisperCppProvider) RequiresAPIKey() bool {
	return false
}

func (p *WhisperCppProvider) ValidateAPIKey(key string) bool {
	return true // no API key needed
}

func (p *WhisperCppProvider) IsLocal() bool {
	return true
}

func (p *WhisperCppProvider) Models() []Model {
	whisperModels := whisper.ListModels()
	result := make([]Model, 0, len(whisperModels))

	for _, wm := range whisperModels {
		desc := "Free/offline English model"
		if wm.Multilingual {
			desc = "Free/offline multilingual model"
		}
		result = append(result, Model{
			ID:          wm.ID,
			Name:        wm.Name,
			Description: desc,
			Type:        Transcription,
			Local:       true,
			LocalInfo: &LocalModelInfo{
				Filename: wm.Filename,
				Size:     wm.Size,
			},
		})
	}

	return result
}

func (p *WhisperCppProvider) DefaultModel(t ModelType) string {
	if t == Transcription {
		return "base.en"
	}
	return ""
}
