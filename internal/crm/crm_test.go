package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type recorder struct {
	delays []time.Duration
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestClient(t *testing.T, url string, rec *recorder, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithSleep(rec.sleep)}, opts...)
	return NewClient(url, "secret", opts...)
}

var testLead = Lead{Name: "John Doe", Email: "john.doe@example.com", Phone: "+491234567890"}

func TestCreateLeadSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != DefaultLeadsPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		var body Lead
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body != testLead {
			t.Errorf("body = %+v, err = %v", body, err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"lead_id":"L-42"}`))
	}))
	defer srv.Close()

	rec := &recorder{}
	res := newTestClient(t, srv.URL, rec).CreateLead(context.Background(), testLead)
	if !res.Success || res.LeadID != "L-42" || res.Attempts != 1 || len(rec.delays) != 0 {
		t.Fatalf("res = %+v delays = %v", res, rec.delays)
	}
}

func TestCreateLeadRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := &recorder{}
	res := newTestClient(t, srv.URL, rec).CreateLead(context.Background(), testLead)

	if res.Success || res.Error != ErrTextUnavailable {
		t.Fatalf("res = %+v", res)
	}
	if n := atomic.LoadInt32(&calls); n != 3 || res.Attempts != 3 {
		t.Fatalf("calls = %d attempts = %d, want 3", n, res.Attempts)
	}
	if len(rec.delays) != 2 || rec.delays[0] != time.Second || rec.delays[1] != 2*time.Second {
		t.Fatalf("delays = %v, want [1s 2s]", rec.delays)
	}
}

func TestCreateLeadRecoversAfterServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 17}`))
	}))
	defer srv.Close()

	rec := &recorder{}
	res := newTestClient(t, srv.URL, rec).CreateLead(context.Background(), testLead)
	if !res.Success || res.LeadID != "17" || res.Attempts != 2 {
		t.Fatalf("res = %+v", res)
	}
}

func TestCreateLeadPermanentFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"bad request with message", http.StatusBadRequest, `{"error":"email already registered"}`, "email already registered"},
		{"bad request without body", http.StatusBadRequest, ``, ErrTextBadRequest},
		{"unauthorized", http.StatusUnauthorized, ``, ErrTextAuth},
		{"forbidden", http.StatusForbidden, ``, "Unexpected error (status 403)"},
		{"conflict", http.StatusConflict, ``, "Unexpected error (status 409)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			rec := &recorder{}
			res := newTestClient(t, srv.URL, rec).CreateLead(context.Background(), testLead)
			if res.Success || res.Error != tc.want {
				t.Fatalf("res = %+v", res)
			}
			if atomic.LoadInt32(&calls) != 1 || len(rec.delays) != 0 {
				t.Fatalf("4xx must not be retried: calls = %d", calls)
			}
		})
	}
}

func TestCreateLeadRetriesTimeouts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	rec := &recorder{}
	res := newTestClient(t, srv.URL, rec, WithAttemptTimeout(50*time.Millisecond)).CreateLead(context.Background(), testLead)
	if res.Success || res.Error != ErrTextTimeout || res.Attempts != 3 {
		t.Fatalf("res = %+v", res)
	}
	if len(rec.delays) != 2 {
		t.Fatalf("delays = %v", rec.delays)
	}
}

func TestCreateLeadConnectionFailureNotRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	rec := &recorder{}
	res := newTestClient(t, url, rec).CreateLead(context.Background(), testLead)
	if res.Success || res.Error != ErrTextConnect || res.Attempts != 1 || len(rec.delays) != 0 {
		t.Fatalf("res = %+v delays = %v", res, rec.delays)
	}
}

func TestUnconfigured(t *testing.T) {
	if res := (Unconfigured{}).CreateLead(context.Background(), testLead); res.Success || res.Error != ErrTextUnconfigured {
		t.Fatalf("res = %+v", res)
	}
}
