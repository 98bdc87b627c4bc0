// Package seen persists the single "last date processed" marker the
// service consults on startup to decide how far back the emitter's
// bootstrap sweep should reach.
package seen

import (
	"fmt"
	"os"
	"strings"

	"github.com/ichar/orderlogd/internal/clock"
)

// Read loads the date stamp from path. A missing file is not an error: it
// returns the zero value and ok=false, matching a fresh install with no
// prior run.
func Read(path string) (stamp string, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read seen marker: %w", err)
	}
	s := strings.TrimSpace(string(data))
	if !clock.CheckDate(s, clock.DateStamp) {
		return "", false, nil
	}
	return s, true, nil
}

// Write persists stamp to path, overwriting any prior marker.
func Write(path, stamp string) error {
	if err := os.WriteFile(path, []byte(stamp), 0o644); err != nil {
		return fmt.Errorf("write seen marker: %w", err)
	}
	return nil
}
