package outwriter

import (
	"os"

	"github.com/huangsam/foothold/internal/contract"
	"golang.org/x/term"
)

// Bounds of the entity name column.
const (
	minNameWidth = 15
	maxNameWidth = 70
)

// getMaxTableNameWidth calculates the maximum width for entity names in table output
// based on terminal width and table configuration.
func getMaxTableNameWidth(cfg *contract.Config) int {
	termWidth := cfg.Width // Absolute width override from flag/env

	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Tier + Score with borders/padding
	baseWidth := 40
	if cfg.Explain {
		baseWidth += 45
	}
	if cfg.Detail {
		baseWidth += 40
	}
	if cfg.Audit {
		baseWidth += 25
	}
	// Table borders and separators
	baseWidth += 10

	available := termWidth - baseWidth
	if available < minNameWidth {
		return minNameWidth
	}
	if available > maxNameWidth {
		return maxNameWidth
	}
	return available
}
