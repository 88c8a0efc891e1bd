package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// Init builds the process logger. Unknown levels fall back to info. The
// dev environment logs text, everything else logs JSON.
func Init(level, env string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	if strings.EqualFold(env, "dev") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	logger = l
	return l
}

func Get() *logrus.Logger {
	once.Do(func() {
		if logger == nil {
			Init("info", "")
		}
	})
	return logger
}
