// Command createadmin provisions an admin account from the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/config"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/repository"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/service"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/logger"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/password"
)

// readPassword is a seam over term.ReadPassword
var readPassword = term.ReadPassword

func main() {
	email := flag.String("email", "", "admin email (required)")
	username := flag.String("username", "", "admin username")
	verified := flag.Bool("verified", true, "mark the email as verified")
	flag.Parse()

	if err := run(*email, *username, *verified); err != nil {
		fmt.Fprintln(os.Stderr, "createadmin:", err)
		os.Exit(1)
	}
}

func run(email, username string, verified bool) error {
	if email == "" {
		return errors.New("-email is required")
	}

	pw, err := promptPassword()
	if err != nil {
		return err
	}

	cfg := config.LoadConfig()
	appLogger := logger.New(cfg)
	ctx := context.Background()

	db, err := database.Connect(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close(db)

	users := service.NewUserService(
		repository.NewUserRepository(db),
		password.NewBcryptHasher(int(cfg.BcryptCost)),
		appLogger,
	)

	user, err := users.CreateUser(ctx, service.CreateUserInput{
		Email:           &email,
		Username:        &username,
		Password:        &pw,
		EmailIsVerified: &verified,
	})
	if verr, ok := service.AsValidationError(err); ok {
		for _, field := range verr.Fields.Fields() {
			fmt.Fprintf(os.Stderr, "%s: %s\n", field, verr.Fields[field])
		}
		return errors.New("admin not created")
	}
	if err != nil {
		return err
	}

	fmt.Printf("Created admin %s (%s)\n", user.Email, user.ID)
	return nil
}

func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())

	fmt.Print("Password: ")
	first, err := readPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Print("Confirm password: ")
	second, err := readPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if len(first) == 0 {
		return "", errors.New("password must not be empty")
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
