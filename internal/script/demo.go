package script

import (
	_ "embed"
)

//go:embed demo.yaml
var demoScript []byte

// Demo returns the built-in demo script.
func Demo() (*Script, error) {
	return Parse(demoScript)
}
