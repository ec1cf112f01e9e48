package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

var Version = "0.1.0"

func main() {
	addr := flag.String("addr", "http://127.0.0.1:8415", "mintpaneld HTTP API")
	logPath := flag.String("log", "", "write debug logs to this file")
	flag.Parse()

	if *logPath != "" {
		f, err := tea.LogToFile(*logPath, "tui")
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	log.Printf("[tui] v%s talking to %s", Version, *addr)
	p := tea.NewProgram(newModel(newAPIClient(*addr)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "mintpanel-tui: %v\n", err)
		os.Exit(1)
	}
}
