package main

import (
	"os"

	"ops-web/ops-web-backend/cmd/ops-web/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
