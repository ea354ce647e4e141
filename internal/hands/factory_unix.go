//go:build unix

package hands

import (
	"runtime"

	"umbrasol/internal/config"
)

// New selects the Hands variant for the current OS.
func New(cfg *config.Config) Hands {
	if runtime.GOOS == "android" {
		return newAndroidHands(cfg)
	}
	return newLinuxHands(cfg)
}
