package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is everything tunable from the environment. A .env file in the
// working directory is loaded first so the API key does not have to live
// in the shell profile.
type Config struct {
	GeminiAPIKey string  `envconfig:"GEMINI_API_KEY"`
	Model        string  `envconfig:"RECITE_MODEL" default:"gemini-2.0-flash"`
	Language     string  `envconfig:"RECITE_LANGUAGE" default:"en-US"`
	MaxSeconds   int     `envconfig:"RECITE_MAX_SECONDS" default:"300"`
	SpeechRate   float64 `envconfig:"RECITE_SPEECH_RATE" default:"1.0"`
	Voice        string  `envconfig:"RECITE_VOICE"`
	PracticeDir  string  `envconfig:"RECITE_PRACTICE_DIR"`
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // optional

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.MaxSeconds <= 0 {
		return nil, fmt.Errorf("RECITE_MAX_SECONDS must be positive, got %d", cfg.MaxSeconds)
	}
	if cfg.SpeechRate <= 0 {
		return nil, fmt.Errorf("RECITE_SPEECH_RATE must be positive, got %g", cfg.SpeechRate)
	}
	return &cfg, nil
}
