// Package main provides tinyd - the tiny oracle price feeder. It polls
// the configured exchanges, aggregates a price vector and submits it on
// chain, optionally as a detached daemon.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/tiny-oracle/tinyd/internal/alarm"
	"github.com/tiny-oracle/tinyd/internal/bus"
	"github.com/tiny-oracle/tinyd/internal/config"
	"github.com/tiny-oracle/tinyd/internal/daemon"
	"github.com/tiny-oracle/tinyd/internal/exchange"
	"github.com/tiny-oracle/tinyd/internal/feeder"
	"github.com/tiny-oracle/tinyd/internal/mail"
	"github.com/tiny-oracle/tinyd/internal/metrics"
	"github.com/tiny-oracle/tinyd/internal/submitter"
	"github.com/tiny-oracle/tinyd/internal/sui"
	"github.com/tiny-oracle/tinyd/pkg/logging"
)

var (
	version = "0.1.0"
	commit  = "unknown"
)

// Environment variables that may carry the signing material. The daemon
// parent also hands the key to its background child through these, so
// the child never prompts.
const (
	keyEnv      = "KEY"
	mnemonicEnv = "MNEMONIC"
)

func main() {
	var (
		interval    = flag.Uint64("interval", 10, "Tick interval in seconds, raised to the configured value when smaller")
		key         = flag.String("key", "", "Base64 ed25519 private key, scheme flag first")
		mnemonic    = flag.String("mnemonic", "", "BIP-39 English mnemonic")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("tinyd %s (%s)\n", version, commit)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	rawKey, rawMnemonic := provisionKey(cfg, *key, *mnemonic)
	if rawKey == "" && rawMnemonic == "" {
		fmt.Fprintln(os.Stderr, "key or mnemonic missing")
		os.Exit(0)
	}

	if cfg.Daemon {
		// The child is a fresh exec of this binary with stdin on
		// /dev/null, so the key must travel by environment.
		os.Setenv(keyEnv, rawKey)
		os.Setenv(mnemonicEnv, rawMnemonic)
		parent, err := daemon.Daemonize()
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to daemonize:", err)
		} else if parent {
			fmt.Println("ok, entering daemon.")
			return
		}
	}

	if cfg.Single {
		lock, ok, err := daemon.Lock(daemon.InstanceID)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to acquire instance lock:", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "program already running...")
			os.Exit(0)
		}
		defer lock.Unlock()
	}

	initLogger(cfg)
	log := logging.GetDefault()
	log.Info("tinyd started", "version", version, "daemon", cfg.Daemon)

	keys, err := loadKeyPair(rawKey, rawMnemonic)
	if err != nil {
		log.Fatal("Failed to load signing key", "error", err)
	}
	log.Info("Signer ready", "address", keys.Address())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.New()
	defer b.Close()

	dispatcher := alarm.NewDispatcher(newMailer(cfg), newPusher(cfg))
	go dispatcher.Run(ctx, b.Alarms())

	client := exchange.NewClient(exchange.DefaultClientConfig(), log.Component("exchange"))
	registry := exchange.NewDefaultRegistry(client)

	f := feeder.New(cfg, registry, b, *interval)

	wallet := sui.NewWallet(sui.NewClient(cfg.RPCs[0]), keys)
	sub, err := submitter.New(cfg, b, wallet, f.Interval())
	if err != nil {
		log.Fatal("Failed to build submitter", "error", err)
	}
	go sub.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn("catch exit signal", "signal", sig)
		cancel()
	}()

	f.Run(ctx)

	log.Warn("Got it! Exiting...")
}

// provisionKey gathers the signing material from every source the
// feeder accepts. Later sources win: the interactive prompt, then the
// environment, then the command line.
func provisionKey(cfg *config.Config, flagKey, flagMnemonic string) (key, mnemonic string) {
	if cfg.Interactive && !daemon.Inherited() {
		key, mnemonic = promptKey()
	}
	if v, ok := os.LookupEnv(keyEnv); ok {
		key = v
	}
	if v, ok := os.LookupEnv(mnemonicEnv); ok {
		mnemonic = v
	}
	if flagKey != "" {
		key = flagKey
	}
	if flagMnemonic != "" {
		mnemonic = flagMnemonic
	}
	return key, mnemonic
}

// promptKey reads a private key or mnemonic from stdin until one
// validates. Terminal input is read with echo off so the key never
// lands in the scrollback.
func promptKey() (key, mnemonic string) {
	fd := int(os.Stdin.Fd())
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("Please enter a private key or mnemonic:")

		var line string
		if term.IsTerminal(fd) {
			raw, err := term.ReadPassword(fd)
			if err != nil {
				fmt.Fprintln(os.Stderr, "failed to read input:", err)
				os.Exit(1)
			}
			line = string(raw)
		} else {
			raw, err := reader.ReadString('\n')
			if err != nil && raw == "" {
				fmt.Fprintln(os.Stderr, "failed to read input:", err)
				os.Exit(1)
			}
			line = raw
		}

		input := strings.Join(strings.Fields(line), " ")
		switch {
		case input == "":
			continue
		case sui.IsValidBase64Key(input):
			return input, ""
		case sui.IsValidMnemonic(input):
			return "", input
		default:
			fmt.Println("The input format is incorrect!")
		}
	}
}

// loadKeyPair parses the provisioned material. An explicit key wins
// over a mnemonic when both are set.
func loadKeyPair(key, mnemonic string) (*sui.KeyPair, error) {
	if key != "" {
		return sui.KeyPairFromBase64(key)
	}
	return sui.KeyPairFromMnemonic(mnemonic)
}

// initLogger installs the process logger. With log_cfg set the console
// stream is mirrored into a rolling tiny.log next to the binary, which
// is the only place records survive once the process is daemonized.
func initLogger(cfg *config.Config) {
	logCfg := logging.DefaultConfig()
	if cfg.LogCfg {
		logCfg.Output = logging.RollingOutput(logging.DefaultRollingConfig(logPath()))
	}
	logging.SetDefault(logging.New(logCfg))
}

// logPath resolves tiny.log next to the executable, matching where the
// config file is looked up.
func logPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "tiny.log"
	}
	return filepath.Join(filepath.Dir(exe), "tiny.log")
}

// newMailer builds the alarm mail sink, or nil when no SMTP relay is
// configured.
func newMailer(cfg *config.Config) alarm.Mailer {
	if cfg.SMTP == "" {
		return nil
	}
	return mail.NewSender(mail.Config{
		Host:     cfg.SMTP,
		Port:     cfg.Port,
		From:     cfg.From,
		To:       cfg.To,
		Username: cfg.Username,
		Password: cfg.Password,
	})
}

// newPusher builds the balance gauge sink, or nil when no push gateway
// is configured.
func newPusher(cfg *config.Config) alarm.BalancePusher {
	if cfg.URL == "" {
		return nil
	}
	return metrics.New(&metrics.Config{
		Job:      cfg.Job,
		URL:      cfg.URL,
		Username: cfg.PromUsername,
		Password: cfg.PromPassword,
		IP:       cfg.IP,
		Env:      cfg.Env,
		Account:  cfg.Account,
	})
}
