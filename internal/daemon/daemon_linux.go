//go:build linux

// Package daemon backgrounds the feeder process and guards against
// concurrent instances.
package daemon

import (
	godaemon "github.com/sevlyar/go-daemon"
)

// Daemonize forks the feeder into the background by re-executing the
// binary detached from the terminal, with stdio on /dev/null and the
// working directory kept. parent is true in the foreground process,
// which must exit without doing any work.
func Daemonize() (parent bool, err error) {
	var ctx godaemon.Context
	child, err := ctx.Reborn()
	if err != nil {
		return false, err
	}
	return child != nil, nil
}

// Inherited reports whether this process is the re-executed background
// child. State that only existed in the foreground parent, such as an
// interactively prompted key, is gone and must arrive by environment.
func Inherited() bool {
	return godaemon.WasReborn()
}
