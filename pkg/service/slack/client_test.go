package slack_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/types"
	"github.com/secmon-lab/risktree/pkg/service/slack"
)

func sampleReport() *model.Report {
	return &model.Report{
		ID:          "0190a8f2-7c1e-7000-8000-000000000001",
		Title:       "Risk report",
		GeneratedAt: time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC),
		SortKey:     types.SortKeyRiskScore,
		Order:       types.SortOrderDesc,
		Cities: []model.ReportRow{
			{ID: 2, Name: "г.Москва", Prob: 0.5, RiskScore: 1.0, Band: types.RiskBandLow},
			{ID: 3, Name: "г.Казань", Prob: 0.9, RiskScore: 4.5, Band: types.RiskBandHigh},
			{ID: 4, Name: "г.Тула", Prob: 0.1, RiskScore: 0.1},
		},
		Totals: model.Totals{ExpectedMin: 150, ExpectedMax: 300, Nodes: 7, Leaves: 4},
	}
}

func TestNew(t *testing.T) {
	t.Run("returns error when token is empty", func(t *testing.T) {
		_, err := slack.New("", "C123")
		gt.Value(t, err).NotNil()
	})

	t.Run("returns error when channel is empty", func(t *testing.T) {
		_, err := slack.New("xoxb-test", "")
		gt.Value(t, err).NotNil()
	})

	t.Run("creates notifier when token and channel are provided", func(t *testing.T) {
		n, err := slack.New("xoxb-test", "C123")
		gt.NoError(t, err).Required()
		gt.Value(t, n).NotNil()
	})
}

func TestNotifier_NotifyReport(t *testing.T) {
	var (
		mu       sync.Mutex
		channel  string
		blocks   string
		fallback string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat.postMessage") {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		channel = r.FormValue("channel")
		blocks = r.FormValue("blocks")
		fallback = r.FormValue("text")
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1712736000.000100"}`))
	}))
	defer srv.Close()

	n, err := slack.New("xoxb-test", "C123", slack.WithAPIURL(srv.URL+"/"))
	gt.NoError(t, err).Required()

	err = n.NotifyReport(context.Background(), sampleReport(), "gs://bucket/report.pdf")
	gt.NoError(t, err).Required()

	mu.Lock()
	defer mu.Unlock()
	gt.Value(t, channel).Equal("C123")
	gt.S(t, blocks).Contains("Risk report")
	gt.S(t, blocks).Contains("gs://bucket/report.pdf")
	gt.S(t, fallback).Contains("150.00")
}

func TestNotifier_NotifyReportAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	n, err := slack.New("xoxb-test", "C404", slack.WithAPIURL(srv.URL+"/"))
	gt.NoError(t, err).Required()

	err = n.NotifyReport(context.Background(), sampleReport(), "")
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("failed to post report summary")
}

func TestIntegration(t *testing.T) {
	token := os.Getenv("TEST_SLACK_BOT_TOKEN")
	channel := os.Getenv("TEST_SLACK_CHANNEL_ID")
	if token == "" || channel == "" {
		t.Skip("TEST_SLACK_BOT_TOKEN or TEST_SLACK_CHANNEL_ID is not set")
	}

	n, err := slack.New(token, channel)
	gt.NoError(t, err).Required()
	gt.NoError(t, n.NotifyReport(context.Background(), sampleReport(), ""))
}
