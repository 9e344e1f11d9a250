//go:build !linux

// Package daemon backgrounds the feeder process and guards against
// concurrent instances.
package daemon

// Daemonize is a no-op off Linux; the feeder stays in the foreground.
func Daemonize() (parent bool, err error) {
	return false, nil
}

// Inherited reports false off Linux, where no background child exists.
func Inherited() bool {
	return false
}
