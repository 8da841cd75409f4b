package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"github.com/ikkim/talentbase-backend/config"
	"github.com/ikkim/talentbase-backend/internal/app/model"
	"github.com/ikkim/talentbase-backend/internal/app/repository"
	"github.com/ikkim/talentbase-backend/internal/app/service"
	"github.com/ikkim/talentbase-backend/internal/db"
	"github.com/ikkim/talentbase-backend/pkg/util"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type importSummary struct {
	Rows       int
	Duplicates int
	Invalid    int
}

func main() {
	batchSize := flag.Int("batch", 500, "rows per insert batch")
	assumeYes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("Usage: go run cmd/seed/main.go [-batch N] [-yes] <xlsx_file_path>")
	}
	filePath := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	accounts, summary, err := readAccountsFromXLSX(filePath, util.NewBcryptHasher(bcrypt.DefaultCost))
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", summary.Rows)
	fmt.Printf("  Valid accounts: %d\n", len(accounts))
	fmt.Printf("  Duplicate emails: %d\n", summary.Duplicates)
	fmt.Printf("  Invalid rows: %d\n", summary.Invalid)

	if !*assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	repo := repository.NewAccountRepository(db.GetDB())
	fmt.Printf("Starting bulk import with batch size: %d\n", *batchSize)
	if err := repo.CreateInBatches(context.Background(), accounts, *batchSize); err != nil {
		log.Fatal("Failed to bulk create accounts:", err)
	}

	fmt.Println("Import completed successfully!")
}

// readAccountsFromXLSX reads email, password and role columns from the first sheet.
// The first row is a header. Rows with a bad email, short password or unknown role are skipped.
func readAccountsFromXLSX(filePath string, hasher service.CredentialHasher) ([]model.Account, importSummary, error) {
	var summary importSummary

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, summary, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, summary, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, summary, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, summary, fmt.Errorf("no data found in XLSX file")
	}

	var accounts []model.Account
	seen := make(map[string]bool)

	for i, row := range rows {
		if i == 0 {
			continue
		}
		summary.Rows++

		if len(row) < 3 {
			summary.Invalid++
			continue
		}

		email := service.NormalizeEmail(row[0])
		password := strings.TrimSpace(row[1])
		role := model.Role(strings.ToLower(strings.TrimSpace(row[2])))

		if _, err := mail.ParseAddress(email); err != nil || len(password) < minPasswordLength || !role.Valid() {
			summary.Invalid++
			continue
		}
		if seen[email] {
			summary.Duplicates++
			continue
		}
		seen[email] = true

		digest, err := hasher.Hash(password)
		if err != nil {
			return nil, summary, fmt.Errorf("failed to hash password on row %d: %w", i+1, err)
		}

		accounts = append(accounts, model.Account{
			Email:            email,
			CredentialDigest: digest,
			Role:             role,
			Active:           true,
		})
	}

	return accounts, summary, nil
}
