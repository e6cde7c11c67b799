package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/cfpio/identity/flagx"
	"github.com/cfpio/identity/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "1s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into
// the runtime Config struct which uses time.Duration.
type JsonConfig struct {
	DatabaseDSN   string         `json:"database_dsn"`
	MailFrom      string         `json:"mail_from"`
	MailSign      string         `json:"mail_sign"`
	MailSendDelay timex.Duration `json:"mail_send_delay"`
}

// parseJson loads configuration values from a JSON file into the
// provided Config instance. The file path comes from the -c or -config
// command-line flags; when neither is set, no JSON file is loaded.
// If the file cannot be read or contains invalid JSON, the function
// panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.DatabaseDSN = c.DatabaseDSN
	config.MailFrom = c.MailFrom
	config.MailSign = c.MailSign
	config.MailSendDelay = time.Duration(c.MailSendDelay.Duration)
}
