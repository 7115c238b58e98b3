package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func resetViper() {
	viper.Reset()
}

func TestGenerateCommand_Success(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST method, got %s", r.Method)
		}
		if r.URL.Path != "/admin/slots/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var reqBody map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if reqBody["date"] != "2026-09-04" {
			t.Errorf("expected date=2026-09-04, got %v", reqBody["date"])
		}
		if reqBody["capacity"] != float64(4) {
			t.Errorf("expected capacity=4, got %v", reqBody["capacity"])
		}
		ranges, _ := reqBody["ranges"].([]interface{})
		if len(ranges) != 2 {
			t.Errorf("expected 2 ranges, got %v", reqBody["ranges"])
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"date":      "2026-09-04",
			"requested": 33,
			"created":   33,
		})
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{
		"generate", "2026-09-04",
		"--capacity", "4",
		"--range", "12:00-14:00",
		"--range", "18:00-21:30",
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "Slots generated for 2026-09-04") {
		t.Errorf("expected success message, got: %s", output)
	}
	if !strings.Contains(output, "33 new") {
		t.Errorf("expected created count in output, got: %s", output)
	}
}

func TestGenerateCommand_APIError(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid schedule"})
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{
		"generate", "bad-date",
		"--range", "18:00-21:30",
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "Failed to generate slots") {
		t.Errorf("expected failure message, got: %s", output)
	}
	if !strings.Contains(output, "400") {
		t.Errorf("expected status code in output, got: %s", output)
	}
}

func TestReconcileCommand_ReportsCorrections(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/reconcile" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"corrections": []map[string]interface{}{
				{
					"SlotID":          "9f2d1f3a-0000-0000-0000-000000000001",
					"Date":            "2026-09-04",
					"StartTime":       "18:00",
					"StoredUnits":     5,
					"RecomputedUnits": 3,
				},
			},
		})
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"reconcile", "--from", "2026-09-01", "--to", "2026-09-07"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "Corrected 1 slot(s)") {
		t.Errorf("expected correction summary, got: %s", output)
	}
	if !strings.Contains(output, "5 -> 3 units") {
		t.Errorf("expected unit change in output, got: %s", output)
	}
}
