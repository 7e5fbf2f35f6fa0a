package main

import (
	"github.com/onixnotes/onix/internal/logger"
)

func main() {
	defer logger.Close() // Ensure log file is closed on exit
	Execute()
}
