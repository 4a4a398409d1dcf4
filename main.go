package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/abhisek/lessondiag/cmd"
)

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
