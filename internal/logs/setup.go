package logs

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// SetupLogging sends logrus output to stdout at the given level; unknown levels fall back to info.
func SetupLogging(level string) {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
