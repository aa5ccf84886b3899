package controller

import (
	"log"
	"time"

	"planvite/importer"

	"github.com/gofiber/websocket/v2"
)

// HandleImportProgressWS streams the progress of one import run. The client
// sends the import_id returned by the import endpoint, then receives a
// progress frame every poll tick until the run leaves the running state.
func HandleImportProgressWS(tracker *importer.ProgressTracker) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		var input struct {
			ImportID string `json:"import_id"`
		}

		if err := c.ReadJSON(&input); err != nil {
			log.Printf("Error reading JSON: %v", err)
			return
		}
		if input.ImportID == "" {
			c.WriteJSON(importer.Progress{Status: importer.StatusFailed, Message: "import_id is required"})
			return
		}

		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		for range ticker.C {
			progress, ok := tracker.Get(input.ImportID)
			if !ok {
				c.WriteJSON(importer.Progress{Status: importer.StatusFailed, Message: "unknown import"})
				return
			}

			if err := c.WriteJSON(progress); err != nil {
				log.Printf("Error writing JSON: %v", err)
				return
			}

			if progress.Status != importer.StatusRunning {
				return
			}
		}
	}
}
