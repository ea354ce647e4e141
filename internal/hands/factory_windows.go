//go:build windows

package hands

import "umbrasol/internal/config"

// New selects the Hands variant for the current OS.
func New(cfg *config.Config) Hands {
	return newWindowsHands(cfg)
}
