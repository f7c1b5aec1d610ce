package cli

import (
	"github.com/fatih/color"
)

var (
	headerStyle  = color.New(color.FgCyan, color.Bold)
	successStyle = color.New(color.FgGreen)
	errorStyle   = color.New(color.FgRed)
	mutedStyle   = color.New(color.FgHiBlack)
)

const (
	checkmark = "✓"
	xmark     = "✗"
)
