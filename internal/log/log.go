// Package log wraps logrus with the banner/section helpers the rest of the
// engine calls, mirroring the house style samp-server-go used for its
// hand-rolled logger but backed by a real structured logging library.
package log

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

var std = logrus.New()

func init() {
	std.SetOutput(os.Stdout)
	std.SetLevel(logrus.InfoLevel)
	std.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
}

// SetLevel sets the minimum level by name ("debug", "info", "warn", "error").
func SetLevel(name string) {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	std.SetLevel(lvl)
}

// WithField returns an entry carrying a single structured field, for call
// sites that want to attach a connection id or similar correlation key.
func WithField(key string, value interface{}) *logrus.Entry {
	return std.WithField(key, value)
}

func Debugf(format string, args ...interface{}) { std.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { std.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { std.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { std.Errorf(format, args...) }
func Fatalf(format string, args ...interface{}) { std.Fatalf(format, args...) }

// Section prints a boxed section header, kept from the teacher's pkg/logger
// texture for startup/shutdown phase markers.
func Section(title string) {
	border := "═══════════════════════════════════════════════════════════"
	fmt.Printf("\n╔%s╗\n", border)
	fmt.Printf("║ %-57s ║\n", title)
	fmt.Printf("╚%s╝\n\n", border)
}

// Banner prints the application banner shown once at startup.
func Banner(title, version string) {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                           ║
║   ███████╗██╗   ██╗██████╗ ███████╗██████╗  █████╗  ██████╗███████╗
║   ██╔════╝██║   ██║██╔══██╗██╔════╝██╔══██╗██╔══██╗██╔════╝██╔════╝
║   ███████╗██║   ██║██████╔╝███████╗██████╔╝███████║██║     █████╗
║   ╚════██║██║   ██║██╔══██╗╚════██║██╔═══╝ ██╔══██║██║     ██╔══╝
║   ███████║╚██████╔╝██████╔╝███████║██║     ██║  ██║╚██████╗███████╗
║   ╚══════╝ ╚═════╝ ╚═════╝ ╚══════╝╚═╝     ╚═╝  ╚═╝ ╚═════╝╚══════╝
║                                                           ║
║              %-37s║
║                    Version %-7s                      ║
║                                                           ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, title, version)
}
