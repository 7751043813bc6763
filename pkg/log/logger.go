package log

import (
	"context"

	logrus "github.com/sirupsen/logrus"
)

type contextKey string

const loggerKey contextKey = "logger"

func CreateContextWithLogger(logger *logrus.Entry) (context.Context, context.CancelFunc) {

	ctx, cancel := context.WithCancel(context.Background())
	ctx = context.WithValue(ctx, loggerKey, logger)

	return ctx, cancel
}

// FromContext returns the logrus entry stored in ctx, or a default entry when
// none was attached.
func FromContext(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(loggerKey).(*logrus.Entry); ok {
		return entry
	}

	return logrus.NewEntry(logrus.StandardLogger())
}
