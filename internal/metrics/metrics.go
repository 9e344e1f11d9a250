// Package metrics pushes feeder health gauges to a Prometheus push
// gateway.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/tiny-oracle/tinyd/pkg/logging"
)

// Config carries the push gateway coordinates.
type Config struct {
	// Job is the gateway job name the metrics are grouped under.
	Job string
	// URL is the gateway base URL.
	URL string
	// Username and Password are the gateway basic auth credentials.
	// Auth is skipped when Username is empty.
	Username string
	Password string
	// IP, Env and Account become push grouping labels identifying this
	// feeder instance.
	IP      string
	Env     string
	Account string
}

// Pusher publishes the balance gauges of one feeder process.
type Pusher struct {
	pusher  *push.Pusher
	balance prometheus.Gauge
	pushed  prometheus.Gauge
	log     *logging.Logger
}

// New builds a pusher bound to the configured gateway job.
func New(cfg *Config) *Pusher {
	balance := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "balance_status",
		Help: "Feeder gas balance in SUI.",
	})
	pushed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "push_timestamp",
		Help: "Wall clock of the last push in epoch milliseconds.",
	})

	p := push.New(cfg.URL, cfg.Job).
		Collector(balance).
		Collector(pushed).
		Grouping("ip", cfg.IP).
		Grouping("env", cfg.Env).
		Grouping("account", cfg.Account)
	if cfg.Username != "" {
		p = p.BasicAuth(cfg.Username, cfg.Password)
	}

	return &Pusher{
		pusher:  p,
		balance: balance,
		pushed:  pushed,
		log:     logging.GetDefault().Component("metrics"),
	}
}

// Push records one balance sample, denominated in SUI, on the gateway.
func (p *Pusher) Push(balance float64) error {
	p.balance.Set(balance)
	p.pushed.Set(float64(time.Now().UnixMilli()))

	if err := p.pusher.Push(); err != nil {
		p.log.Error("Metrics push failed", "error", err)
		return err
	}
	p.log.Debug("Metrics push succeeded", "balance", balance)
	return nil
}
