package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/expense-sheets/internal/config"
	"github.com/dvloznov/expense-sheets/internal/domain"
	"github.com/dvloznov/expense-sheets/internal/logger"
	"github.com/dvloznov/expense-sheets/internal/retry"
	"github.com/dvloznov/expense-sheets/internal/sheets"
	"github.com/dvloznov/expense-sheets/internal/validation"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.Debug)

	switch os.Args[1] {
	case "options":
		runOptions(cfg, log)
	case "append":
		runAppend(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Expense Sheets CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  options   Print the cost centers and cash-flow sections from the settings sheet")
	fmt.Println("  append    Validate an operation and append it to the operations sheet")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runOptions(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("options", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	options, err := sheets.NewGateway(cfg, log).LoadDropdownOptions(ctx)
	if err != nil {
		fatal(log, err, "Failed to load dropdown options")
	}

	fmt.Printf("\n=== %s (%d) ===\n", domain.FieldCostCenter, len(options.Centers))
	for _, c := range options.Centers {
		fmt.Printf("  %s\n", c)
	}
	fmt.Printf("\n=== %s (%d) ===\n", domain.FieldCashFlow, len(options.Sections))
	for _, s := range options.Sections {
		fmt.Printf("  %s\n", s)
	}
	fmt.Println()
}

func runAppend(cfg *config.Config, log zerolog.Logger) {
	op, err := parseOperation(os.Args[2:], civil.DateOf(time.Now()).String())
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Operation is invalid")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	if err := sheets.NewGateway(cfg, log).AppendOperation(ctx, op); err != nil {
		fatal(log, err, "Failed to append operation")
	}

	fmt.Printf("Appended operation to %s: %s\n", cfg.OperationsSheet, strings.Join(op.Row(), " | "))
}

// parseOperation reads the append flags into a validated operation. Both dates
// default to today.
func parseOperation(args []string, today string) (domain.Operation, error) {
	fs := flag.NewFlagSet("append", flag.ContinueOnError)
	date := fs.String("date", today, "Operation date, YYYY-MM-DD")
	center := fs.String("center", "", "Cost center")
	section := fs.String("section", "", "Cash-flow section")
	expenseDate := fs.String("expense-date", today, "Expense recognition date, YYYY-MM-DD")
	amount := fs.String("amount", "", "Amount, a non-negative number")
	counterparty := fs.String("counterparty", "", "Counterparty")
	description := fs.String("description", "", "What the payment is for")
	if err := fs.Parse(args); err != nil {
		return domain.Operation{}, err
	}

	values := map[string]string{
		domain.FieldDate:         *date,
		domain.FieldCostCenter:   *center,
		domain.FieldCashFlow:     *section,
		domain.FieldExpenseDate:  *expenseDate,
		domain.FieldAmount:       *amount,
		domain.FieldCounterparty: *counterparty,
		domain.FieldDescription:  *description,
	}

	if missing := validation.MissingFields(values); len(missing) > 0 {
		return domain.Operation{}, fmt.Errorf("required fields are empty: %s", strings.Join(missing, ", "))
	}

	op := domain.OperationFromValues(values)
	if err := validation.ValidateOperation(op); err != nil {
		return domain.Operation{}, err
	}
	return op, nil
}

func fatal(log zerolog.Logger, err error, msg string) {
	var cfgErr *config.Error
	switch {
	case errors.As(err, &cfgErr):
		log.Fatal().Str("config_error", cfgErr.Msg).Msg(msg)
	case errors.Is(err, retry.ErrTemporarilyUnavailable):
		log.Fatal().Err(err).Msg(msg + ": Google Sheets is temporarily unavailable, try again later")
	default:
		log.Fatal().Err(err).Msg(msg)
	}
}
