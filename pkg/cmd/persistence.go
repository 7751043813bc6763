package cmd

import (
	"fmt"
	"strings"

	"github.com/replaykit/replaykit/pkg/persistence"
	"github.com/replaykit/replaykit/pkg/persistence/file"
	redispersistence "github.com/replaykit/replaykit/pkg/persistence/redis"
)

// NewPersistence picks a persistence implementation from the database URL
// scheme. Anything that is not redis:// falls back to file storage.
func NewPersistence(databaseURL string) persistence.Persistence {
	if strings.HasPrefix(databaseURL, "redis://") || strings.HasPrefix(databaseURL, "rediss://") {
		p, err := redispersistence.NewPersistence(databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create redis persistence: %w", err))
		}

		return p
	}

	return file.NewPersistence(databaseURL)
}
