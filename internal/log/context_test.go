// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextWithRunID(t *testing.T) {
	tests := []struct {
		name  string
		ctx   context.Context
		runID string
		want  string
	}{
		{
			name:  "nil context",
			ctx:   nil,
			runID: "run-123",
			want:  "run-123",
		},
		{
			name:  "background context",
			ctx:   context.Background(),
			runID: "run-456",
			want:  "run-456",
		},
		{
			name:  "empty run ID",
			ctx:   context.Background(),
			runID: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRunID(tt.ctx, tt.runID)
			if got := RunIDFromContext(ctx); got != tt.want {
				t.Errorf("RunIDFromContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromContext_NilAndMissing(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	if FromContext(nil) == nil {
		t.Fatal("FromContext(nil) returned nil logger")
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext(background) returned nil logger")
	}
	if got := JobNameFromContext(context.Background()); got != "" {
		t.Errorf("JobNameFromContext() = %q, want empty", got)
	}
}

func TestWithContext_AddsRunFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := ContextWithRunID(context.Background(), "run-1")
	ctx = ContextWithJobName(ctx, "at_fast_fgsm")

	enriched := WithContext(ctx, logger)
	enriched.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}
	if entry[FieldRunID] != "run-1" {
		t.Errorf("run_id = %v, want run-1", entry[FieldRunID])
	}
	if entry[FieldJobName] != "at_fast_fgsm" {
		t.Errorf("job_name = %v, want at_fast_fgsm", entry[FieldJobName])
	}
}

func TestWithContext_NoFieldsReturnsSameLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	got := WithContext(context.Background(), logger)
	got.Info().Msg("plain")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}
	if _, ok := entry[FieldRunID]; ok {
		t.Error("unexpected run_id field")
	}
}
