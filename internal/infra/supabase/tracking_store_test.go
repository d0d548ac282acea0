package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/legalform-ci/legalform-api/internal/infra/resilience"
	trackingdomain "github.com/legalform-ci/legalform-api/internal/tracking/domain"

	"go.uber.org/zap"
)

func newTestClient(backendURL string) *Client {
	return NewClient(
		&http.Client{Timeout: 2 * time.Second},
		backendURL,
		"anon",
		"service-role",
		resilience.NewCircuitBreaker("supabase-test"),
		resilience.Config{MaxRetries: 1, InitialBackoff: 5 * time.Millisecond, MaxConcurrency: 5},
		zap.NewNop(),
	)
}

// rateLimitBackend emulates the record_tracking_attempt SQL function: one
// row per (phone, ip) couple, incremented server-side.
type rateLimitBackend struct {
	mu   sync.Mutex
	rows map[string]*trackingdomain.RateLimitEntry
}

func (b *rateLimitBackend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/rpc/record_tracking_attempt" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var args struct {
			Phone           string `json:"p_phone"`
			IP              string `json:"p_ip"`
			MaxAttempts     int    `json:"p_max_attempts"`
			WindowSeconds   int    `json:"p_window_seconds"`
			CooldownSeconds int    `json:"p_cooldown_seconds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			t.Errorf("decode rpc args: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if args.MaxAttempts == 0 || args.WindowSeconds == 0 || args.CooldownSeconds == 0 {
			t.Error("expected the limiter thresholds in the rpc arguments")
		}

		b.mu.Lock()
		key := args.Phone + "|" + args.IP
		entry, ok := b.rows[key]
		now := time.Now().UTC()
		if !ok {
			entry = &trackingdomain.RateLimitEntry{
				ID:             fmt.Sprintf("row-%d", len(b.rows)+1),
				Phone:          args.Phone,
				IPAddress:      args.IP,
				FirstAttemptAt: now,
			}
			b.rows[key] = entry
		}
		entry.AttemptCount++
		entry.LastAttemptAt = now
		if entry.AttemptCount >= args.MaxAttempts {
			until := now.Add(time.Duration(args.CooldownSeconds) * time.Second)
			entry.BlockedUntil = &until
		}
		row := *entry
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]trackingdomain.RateLimitEntry{row})
	}
}

// Repeated attempts for the same (phone, ip) couple must land on a single
// counter row, whatever id the rows carry. The increment happens in the
// store, not read-modify-write in the caller.
func TestRecordAttempt_SingleRowPerCouple(t *testing.T) {
	backend := &rateLimitBackend{rows: make(map[string]*trackingdomain.RateLimitEntry)}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	client := newTestClient(srv.URL)
	limits := trackingdomain.Limits{MaxAttempts: 3, Window: 15 * time.Minute, Cooldown: 30 * time.Minute}

	var last *trackingdomain.RateLimitEntry
	for i := 0; i < 3; i++ {
		entry, err := client.RecordAttempt(context.Background(), "+2250199999999", "203.0.113.10", limits)
		if err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		last = entry
	}

	if len(backend.rows) != 1 {
		t.Fatalf("expected a single counter row for the couple, got %d", len(backend.rows))
	}
	if last.AttemptCount != 3 {
		t.Errorf("expected attempt count 3, got %d", last.AttemptCount)
	}
	if last.BlockedUntil == nil {
		t.Error("expected the threshold to set blocked_until")
	}
}

func TestRecordAttempt_DistinctCouplesDistinctRows(t *testing.T) {
	backend := &rateLimitBackend{rows: make(map[string]*trackingdomain.RateLimitEntry)}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	client := newTestClient(srv.URL)
	limits := trackingdomain.Limits{MaxAttempts: 3, Window: 15 * time.Minute, Cooldown: 30 * time.Minute}

	if _, err := client.RecordAttempt(context.Background(), "+2250199999999", "203.0.113.10", limits); err != nil {
		t.Fatalf("first couple: %v", err)
	}
	entry, err := client.RecordAttempt(context.Background(), "+2250199999999", "198.51.100.7", limits)
	if err != nil {
		t.Fatalf("second couple: %v", err)
	}

	if len(backend.rows) != 2 {
		t.Fatalf("expected one row per couple, got %d", len(backend.rows))
	}
	if entry.AttemptCount != 1 {
		t.Errorf("a different IP starts its own counter, got %d", entry.AttemptCount)
	}
}
