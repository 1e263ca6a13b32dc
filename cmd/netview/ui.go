package main

import "github.com/fatih/color"

// Terminal colors for command output.
var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
	info   = color.New(color.FgCyan)
)
