package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vlasover/drive-events-bot/internal/domain/session"
)

func TestProgressBarQuarterDone(t *testing.T) {
	bar := ProgressBar(session.Progress{
		CompletedCount: 1,
		FileCount:      2,
		CompletedBytes: 100,
		TotalBytes:     400,
	})

	assert.Equal(t, "[██░░░░░░░░] 25.0% (1/2)", bar)
}

func TestProgressBarRoundsDown(t *testing.T) {
	bar := ProgressBar(session.Progress{
		CompletedCount: 1,
		FileCount:      3,
		CompletedBytes: 199,
		TotalBytes:     1000,
	})

	// 19.9% fills a single cell.
	assert.Equal(t, "[█░░░░░░░░░] 19.9% (1/3)", bar)
}

func TestProgressBarZeroBytes(t *testing.T) {
	bar := ProgressBar(session.Progress{FileCount: 2})

	assert.Equal(t, "[░░░░░░░░░░] 0.0% (0/2)", bar)
}

func TestProgressBarComplete(t *testing.T) {
	bar := ProgressBar(session.Progress{
		CompletedCount: 2,
		FileCount:      2,
		CompletedBytes: 400,
		TotalBytes:     400,
	})

	assert.Equal(t, "[██████████] 100.0% (2/2)", bar)
}
