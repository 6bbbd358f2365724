package domain

import "fmt"

const (
	kib = 1024
	mib = kib * 1024
	gib = mib * 1024
)

// HumanSize renders a byte count at base 1024 with one decimal above 1 KB,
// e.g. 512 -> "512 B", 1536 -> "1.5 KB".
func HumanSize(bytes int64) string {
	switch {
	case bytes < kib:
		return fmt.Sprintf("%d B", bytes)
	case bytes < mib:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kib)
	case bytes < gib:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mib)
	default:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gib)
	}
}
