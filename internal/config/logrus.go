package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logg *logrus.Logger

func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetLevel(logrus.InfoLevel)
	logg.SetOutput(os.Stdout)
}

// SetLogLevel applies a textual level; unknown values keep the current one.
func SetLogLevel(level string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logg.SetLevel(lvl)
	}
}

func LogError(logger *logrus.Logger, moduleName string, funcName string, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
