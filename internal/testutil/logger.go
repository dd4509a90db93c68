package testutil

import (
	"io"

	"github.com/amirhossein5/faceauth/internal/logger"
)

func MakeNoopLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, 0)
}
