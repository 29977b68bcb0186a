package main

import (
	"encoding/json"
	"io"
	"os"
)

// printJSON writes v as a single line of JSON, the form downstream tooling
// parses from stdout.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Terminal colors

func colorRed(s string) string {
	if !isTTY(os.Stderr) {
		return s
	}
	return "\033[31m" + s + "\033[0m"
}

// colorGreen colors s when w is a terminal.
func colorGreen(w io.Writer, s string) string {
	if !isTTY(w) {
		return s
	}
	return "\033[32m" + s + "\033[0m"
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
