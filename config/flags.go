package config

import (
	"flag"
	"os"
	"time"

	"github.com/cfpio/identity/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-f string   mail sender address
//	-s string   mail signature
//	-w int      mail send delay, seconds
//
// The function first filters os.Args to only the flags it recognizes
// using flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-f", "-s", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MailFrom, "f", config.MailFrom, "mail sender address")
	fs.StringVar(&config.MailSign, "s", config.MailSign, "mail signature")

	mailSendDelay := fs.Int("w", int(config.MailSendDelay.Seconds()), "mail send delay (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.MailSendDelay = time.Duration(*mailSendDelay) * time.Second
}
