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

// DeskGuard core service: hybrid rule/LLM support-ticket classification.
package main

import (
	"flag"
	"log"
	"time"

	"deskguard/core/agents"
	"deskguard/core/config"
	"deskguard/core/events"
	"deskguard/core/llm"
	"deskguard/core/metrics"
	"deskguard/core/orchestrator"
	"deskguard/core/rules"
	"deskguard/core/server"
	"deskguard/core/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Main] Failed to load configuration: %v", err)
	}

	engine := rules.NewEngine()
	client := llm.NewOllamaClient(cfg.Ollama.Endpoint, cfg.Ollama.Model,
		time.Duration(cfg.Ollama.TimeoutSeconds)*time.Second)

	triage := agents.NewTriageAgent(engine, client, agents.TriageConfig{
		ConfidenceThreshold: cfg.Triage.ConfidenceThreshold,
		AlwaysEscalate:      cfg.Triage.AlwaysEscalate,
	})
	compliance := agents.NewComplianceAgent(engine)
	risk := agents.NewRiskAgent(engine, client)

	channel := events.NewChannel(cfg.Events.HistoryLimit)
	audit := events.NewAuditTrail(cfg.Events.HistoryLimit)
	events.RegisterAuditTrail(channel, audit)
	stats := metrics.NewAccumulator()

	var tickets store.TicketRepository
	if cfg.Database.URL != "" {
		pg, err := store.NewPostgresStore(cfg.Database.URL)
		if err != nil {
			log.Fatalf("[Main] Failed to connect ticket database: %v", err)
		}
		defer pg.Close()
		tickets = pg
		log.Printf("[Main] Using PostgreSQL ticket store")
	} else {
		tickets = store.NewMemoryStore()
		log.Printf("[Main] No DATABASE_URL set, using in-memory ticket store")
	}

	workflow := orchestrator.NewEngine(triage, compliance, risk, tickets, channel, stats)
	srv := server.New(workflow, tickets, channel, audit, stats)

	log.Printf("[Main] DeskGuard core starting on port %d (model=%s)", cfg.Server.Port, cfg.Ollama.Model)
	if err := srv.ListenAndServe(cfg.Server); err != nil {
		log.Fatalf("[Main] Server exited: %v", err)
	}
}
