package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driving"
)

// lineProgress writes one line per progress event. Safe for concurrent use.
func lineProgress(w io.Writer) driving.ProgressFunc {
	var mu sync.Mutex
	return func(ev domain.ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()

		line := fmt.Sprintf("[%s]", ev.Stage)
		if ev.Total > 0 {
			line += fmt.Sprintf(" %d/%d", ev.Done, ev.Total)
		}
		if ev.Message != "" {
			line += " " + ev.Message
		}
		fmt.Fprintln(w, line)
	}
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
