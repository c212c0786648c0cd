package main

import (
	"fmt"
	"os"

	"github.com/MyButtermilk/Scriber-sub000/cmd/scriber/cmd"
	"github.com/MyButtermilk/Scriber-sub000/internal/config"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	cmd.Execute()
}
