package utils

import (
	"fmt"
	"strings"

	"github.com/vlasover/drive-events-bot/internal/domain/session"
)

const progressCells = 10

// ProgressBar renders a deterministic ten-cell bar of byte-weighted commit
// progress, each filled cell one completed tenth rounded down.
//
//	[███░░░░░░░] 30.0% (2/4)
func ProgressBar(p session.Progress) string {
	filled := 0
	if p.TotalBytes > 0 {
		filled = int(p.CompletedBytes * progressCells / p.TotalBytes)
	}
	if filled > progressCells {
		filled = progressCells
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressCells-filled)
	return fmt.Sprintf("[%s] %.1f%% (%d/%d)", bar, p.Percent(), p.CompletedCount, p.FileCount)
}
