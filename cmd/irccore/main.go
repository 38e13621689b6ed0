package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/irccore/internal/cli"
	"github.com/tillberg/autorestart"
)

func main() {
	// Restarting drops every connection, so only do it when asked.
	if os.Getenv("IRCCORE_AUTORESTART") != "" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "irccore:", err)
		os.Exit(1)
	}
}
