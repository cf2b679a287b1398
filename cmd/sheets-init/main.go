package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"planner/internal/cli"
	plog "planner/internal/log"
	gsheet "planner/internal/sheets/google"
)

// sheets-init finds or creates the mirror spreadsheet and prints its id,
// ready to be pinned as GOOGLE_SPREADSHEET_ID.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(plog.ComponentSheets)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", plog.FieldError, err)
		os.Exit(1)
	}

	title := os.Getenv("GOOGLE_SPREADSHEET_TITLE")
	if title == "" {
		title = gsheet.DefaultSpreadsheetTitle
	}
	id, err := client.EnsureSpreadsheet(ctx, title)
	if err != nil {
		logger.Error("Failed to resolve spreadsheet", plog.FieldError, err, "title", title)
		os.Exit(1)
	}

	logger.Info("Spreadsheet ready", "spreadsheet_id", id, "title", title)
	fmt.Println(id)
}
