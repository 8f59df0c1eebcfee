// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/rigwatch/lib/journal"
	"github.com/bureau-foundation/rigwatch/lib/stats"
)

// reportSink writes each report as a JSON line and, when a journal is
// open, appends it there too. Emit is called concurrently from the
// per-instance goroutines.
type reportSink struct {
	mu      sync.Mutex
	encoder *json.Encoder
	journal *journal.Writer
	logger  *slog.Logger
}

func newReportSink(stdout io.Writer, journalWriter *journal.Writer, logger *slog.Logger) *reportSink {
	return &reportSink{
		encoder: json.NewEncoder(stdout),
		journal: journalWriter,
		logger:  logger,
	}
}

func (s *reportSink) Emit(report stats.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.encoder.Encode(report); err != nil {
		s.logger.Error("writing report", "instance", report.Instance, "error", err)
	}
	if s.journal == nil {
		return
	}
	if err := s.journal.Append(report); err != nil {
		s.logger.Error("appending report to journal", "instance", report.Instance, "error", err)
	}
}
