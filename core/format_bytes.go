package core

import "fmt"

// Binary byte units.
const (
	BytesPerKB int64 = 1024
	BytesPerMB int64 = 1024 * BytesPerKB
	BytesPerGB int64 = 1024 * BytesPerMB
	BytesPerTB int64 = 1024 * BytesPerGB
)

// FormatBytes renders a byte count with two decimals in the largest fitting
// unit: 512 is "512 B", 1536 is "1.50 KB". Negative counts render as "0 B".
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}

	switch {
	case bytes >= BytesPerTB:
		return fmt.Sprintf("%.2f TB", float64(bytes)/float64(BytesPerTB))
	case bytes >= BytesPerGB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(BytesPerGB))
	case bytes >= BytesPerMB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(BytesPerMB))
	case bytes >= BytesPerKB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(BytesPerKB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
