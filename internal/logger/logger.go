package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Log - глобальный экземпляр логгера
var Log = logrus.New()

// Init настраивает структурированный JSON-логгер сервиса
func Init(serviceName string) *logrus.Logger {
	Log.SetOutput(os.Stdout)

	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if lvl, err := logrus.ParseLevel(level); err == nil {
			Log.SetLevel(lvl)
		}
	} else {
		Log.SetLevel(logrus.InfoLevel)
	}

	Log.AddHook(&serviceHook{service: serviceName})

	return Log
}

type serviceHook struct {
	service string
}

func (h *serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *serviceHook) Fire(e *logrus.Entry) error {
	e.Data["service"] = h.service
	return nil
}
