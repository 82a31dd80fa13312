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

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	promAnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskguard_analyses_total",
			Help: "Total number of ticket analyses completed",
		},
		[]string{"mode"},
	)
	promAnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deskguard_analysis_duration_milliseconds",
			Help:    "Ticket analysis duration in milliseconds",
			Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000, 10000, 20000},
		},
	)
	promAgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskguard_agent_calls_total",
			Help: "Total number of agent invocations",
		},
		[]string{"agent"},
	)
)

func init() {
	prometheus.MustRegister(promAnalysesTotal)
	prometheus.MustRegister(promAnalysisDuration)
	prometheus.MustRegister(promAgentCalls)
}

func recordPrometheus(llmUsed bool, elapsed time.Duration) {
	mode := "rules"
	if llmUsed {
		mode = "llm"
	}
	promAnalysesTotal.WithLabelValues(mode).Inc()
	promAnalysisDuration.Observe(float64(elapsed.Milliseconds()))
	promAgentCalls.WithLabelValues("triage").Inc()
	promAgentCalls.WithLabelValues("compliance").Inc()
	promAgentCalls.WithLabelValues("risk").Inc()
}
