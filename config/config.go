// Copyright 2025 DeskGuard
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads service configuration from an optional YAML file
// with environment-variable overrides on top of built-in defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Ollama   OllamaConfig   `yaml:"ollama"`
	Triage   TriageConfig   `yaml:"triage"`
	Database DatabaseConfig `yaml:"database"`
	Events   EventsConfig   `yaml:"events"`
}

// ServerConfig configures the HTTP caller layer.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// OllamaConfig configures the inference endpoint.
type OllamaConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// TriageConfig configures the triage escalation policy.
type TriageConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	AlwaysEscalate      bool    `yaml:"always_escalate"`
}

// DatabaseConfig configures ticket persistence. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// EventsConfig configures the event channel history bound.
type EventsConfig struct {
	HistoryLimit int `yaml:"history_limit"`
}

// Load reads the configuration file at path (skipped if missing or path is
// empty), then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{Port: 8090},
		Ollama: OllamaConfig{
			Endpoint:       "http://localhost:11434",
			Model:          "mistral",
			TimeoutSeconds: 15,
		},
		Triage: TriageConfig{
			ConfidenceThreshold: 0.8,
			AlwaysEscalate:      false,
		},
		Events: EventsConfig{HistoryLimit: 1000},
	}

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DESKGUARD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("OLLAMA_ENDPOINT"); v != "" {
		cfg.Ollama.Endpoint = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Ollama.Model = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DESKGUARD_ALWAYS_ESCALATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Triage.AlwaysEscalate = b
		}
	}
}
