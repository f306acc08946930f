package utils

import (
	"io"

	"github.com/MrSnakeDoc/startpage/internal/logger"
)

// CloseLogged closes c and logs any error under what.
func CloseLogged(c io.Closer, what string, log logger.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close",
			logger.String("what", what),
			logger.Error(err))
	}
}
