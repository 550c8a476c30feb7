package printer

import (
	"github.com/fatih/color"
)

type ColorPrinter struct {
	Error   func(format string, a ...interface{}) string
	Warning func(format string, a ...interface{}) string
	Info    func(format string, a ...interface{}) string
	Debug   func(format string, a ...interface{}) string
}

func NewColorPrinter() *ColorPrinter {
	return &ColorPrinter{
		Error:   color.New(color.FgRed).SprintfFunc(),
		Warning: color.New(color.FgYellow).SprintfFunc(),
		Info:    color.New(color.FgBlue).SprintfFunc(),
		Debug:   color.New(color.FgCyan).SprintfFunc(),
	}
}
