// cmd/mneme/main.go
package main

import (
	cmd "github.com/mwiater/mneme/internal/commands"
)

// main starts the mneme CLI application by delegating to the cobra root
// command. It does not take any arguments and does not return a value.
func main() {
	cmd.Execute()
}
