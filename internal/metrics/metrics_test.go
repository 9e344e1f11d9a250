package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testGatewayConfig(url string) *Config {
	return &Config{
		Job:      "tiny",
		URL:      url,
		Username: "prom",
		Password: "secret",
		IP:       "10.0.0.7",
		Env:      "prod",
		Account:  "feeder-1",
	}
}

func TestPush(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New(testGatewayConfig(srv.URL))
	if err := p.Push(1.5); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	if !strings.HasPrefix(gotPath, "/metrics/job/tiny") {
		t.Errorf("path = %q, want /metrics/job/tiny prefix", gotPath)
	}
	for _, segment := range []string{"ip/10.0.0.7", "env/prod", "account/feeder-1"} {
		if !strings.Contains(gotPath, segment) {
			t.Errorf("path = %q, missing grouping %q", gotPath, segment)
		}
	}
	if !strings.HasPrefix(gotAuth, "Basic ") {
		t.Errorf("Authorization = %q, want basic auth", gotAuth)
	}
}

func TestPushGatewayDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := New(testGatewayConfig(srv.URL)).Push(0.5); err == nil {
		t.Fatal("Push() succeeded against failing gateway, want error")
	}
}

func TestPushNoAuthWhenUsernameEmpty(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	cfg := testGatewayConfig(srv.URL)
	cfg.Username = ""
	if err := New(cfg).Push(2); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty without credentials", gotAuth)
	}
}
