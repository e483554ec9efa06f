package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"woolreport/internal/report"
)

func TestInsightComposerCompose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req openAiChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Model != "test-model" || len(req.Messages) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		prompt := req.Messages[0].Content
		if !strings.Contains(prompt, "Fine wool firmed") || strings.Contains(prompt, "<p>") || !strings.Contains(prompt, `"clearance_rate_pct":93.5`) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		resp := openAiChatResponse{
			Choices: []openAiChoice{
				{Message: openAiResponseMessage{Content: "```json\n{\"error\":\"\",\"insight\":\"Clearance held at 93.5%.\"}\n```"}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	logWriter := &stubLogWriter{}
	composer, err := NewInsightComposer("test-key", "test-model", logWriter, server.Client(), server.URL)
	if err != nil {
		t.Fatalf("NewInsightComposer: %v", err)
	}

	summary := report.Summarize(sampleReport())
	insight, err := composer.Compose(context.Background(), "<p>Fine wool firmed</p>", summary)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if insight != "Clearance held at 93.5%." {
		t.Fatalf("insight = %q, want %q", insight, "Clearance held at 93.5%.")
	}
	if logWriter.count(LogActionInsightCompose, LogOutcomeSuccess) != 1 {
		t.Fatalf("compose logs = %d, want 1", logWriter.count(LogActionInsightCompose, LogOutcomeSuccess))
	}
}

func TestInsightComposerRetriesThenFails(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	logWriter := &stubLogWriter{}
	composer, err := NewInsightComposer("test-key", "", logWriter, server.Client(), server.URL)
	if err != nil {
		t.Fatalf("NewInsightComposer: %v", err)
	}

	if _, err := composer.Compose(context.Background(), "notes", report.MarketSummary{}); err == nil {
		t.Fatalf("Compose: expected error")
	}
	if got := atomic.LoadInt32(&calls); got != composeAttempts {
		t.Fatalf("calls = %d, want %d", got, composeAttempts)
	}
	if logWriter.count(LogActionInsightCompose, LogOutcomeFail) != composeAttempts {
		t.Fatalf("fail logs = %d, want %d", logWriter.count(LogActionInsightCompose, LogOutcomeFail), composeAttempts)
	}
}

func TestInsightComposerRefusal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openAiChatResponse{Choices: []openAiChoice{{Message: openAiResponseMessage{Content: `{"error":"NO_INPUT","insight":""}`}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	composer, err := NewInsightComposer("test-key", "", &stubLogWriter{}, server.Client(), server.URL)
	if err != nil {
		t.Fatalf("NewInsightComposer: %v", err)
	}
	if _, err := composer.Compose(context.Background(), "", report.MarketSummary{}); err == nil {
		t.Fatalf("Compose refusal: expected error")
	}
}

func TestNewInsightComposerRequiresKey(t *testing.T) {
	if _, err := NewInsightComposer("", "", &stubLogWriter{}, nil, ""); err == nil {
		t.Fatalf("NewInsightComposer empty key: expected error")
	}
}
