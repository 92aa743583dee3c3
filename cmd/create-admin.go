package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/sampark/sampark/internal/auth"
	"github.com/sampark/sampark/internal/database"
	"github.com/spf13/cobra"
)

var createAdminCmdFlags struct {
	Name               string
	Email              string
	RegistrationNumber string
	Password           string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Long:  `Create an approved admin account. A password is generated and printed when none is given.`,
	Example: `sampark create-admin --email admin@example.com
sampark create-admin --email admin@example.com --registration-number ADMIN002 --password s3cret`,
	RunE: createAdmin,
}

func init() {
	createAdminCmd.Flags().StringVar(&createAdminCmdFlags.Name, "name", "Admin", "Display name of the admin")
	createAdminCmd.Flags().StringVar(&createAdminCmdFlags.Email, "email", "admin@sampark.local", "Email address of the admin")
	createAdminCmd.Flags().StringVar(&createAdminCmdFlags.RegistrationNumber, "registration-number", "ADMIN001", "Registration number used to log in")
	createAdminCmd.Flags().StringVar(&createAdminCmdFlags.Password, "password", "", "Password (generated when empty)")

	rootCmd.AddCommand(createAdminCmd)
}

func createAdmin(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close() //nolint: errcheck

	ctx := cmd.Context()
	if _, err := db.GetUserByEmail(ctx, createAdminCmdFlags.Email); err == nil {
		log.Info("Admin already exists", "email", createAdminCmdFlags.Email)
		return nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	password := createAdminCmdFlags.Password
	generated := password == ""
	if generated {
		if password, err = auth.GeneratePassword(); err != nil {
			return fmt.Errorf("failed to generate password: %w", err)
		}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &database.User{
		Name:               createAdminCmdFlags.Name,
		Email:              createAdminCmdFlags.Email,
		RegistrationNumber: createAdminCmdFlags.RegistrationNumber,
		PasswordHash:       hash,
		Status:             database.UserStatusApproved,
		IsAdmin:            true,
	}
	if err := db.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Println("Admin created successfully!")
	fmt.Printf("Registration Number: %s\n", admin.RegistrationNumber)
	if generated {
		fmt.Printf("Password: %s\n", password)
	}
	return nil
}
