package notify

import (
	"fmt"
	"strings"
	"time"
)

// Recording describes a match demo handled by the recorder.
type Recording struct {
	Match  string        // Match name the demo was recorded for
	Path   string        // Final location, empty if never saved
	Size   int64         // File size in bytes
	Length time.Duration // Wall time spent recording
}

// FormatSavedMessage creates a saved-demo notification body.
func FormatSavedMessage(rec *Recording) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Match: %s\n", rec.Match))
	sb.WriteString(fmt.Sprintf("File: %s\n", rec.Path))
	sb.WriteString(fmt.Sprintf("Size: %s\n", formatSize(rec.Size)))
	sb.WriteString(fmt.Sprintf("Length: %s", rec.Length.Round(time.Second)))

	return sb.String()
}

// FormatFailedMessage creates a failure notification body.
func FormatFailedMessage(rec *Recording, err error) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Match: %s\n", rec.Match))
	sb.WriteString(fmt.Sprintf("Length: %s", rec.Length.Round(time.Second)))
	if rec.Path != "" {
		sb.WriteString(fmt.Sprintf("\nFile: %s", rec.Path))
	}
	if err != nil {
		sb.WriteString(fmt.Sprintf("\n\nError: %v", err))
	}

	return sb.String()
}

// FormatDiscardedMessage creates the body for a demo dropped as too short.
func FormatDiscardedMessage(rec *Recording, minLength time.Duration) string {
	return fmt.Sprintf("Match: %s\nLength: %s (minimum %s)",
		rec.Match, rec.Length.Round(time.Second), minLength)
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
