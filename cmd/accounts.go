// cmd/accounts.go
package cmd

import (
	"context"
	"fmt"

	"example.com/guardian/services/monitor/config"
	"example.com/guardian/services/monitor/internal/database"
	"example.com/guardian/services/monitor/internal/models"
	"example.com/guardian/services/monitor/internal/repository"

	"github.com/spf13/cobra"
)

var (
	accountName  string
	accountEmail string
	accountPhone string
	notifyEmail  bool
	notifyPush   bool
)

// accountsCmd represents the accounts command
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage owners and caregivers",
	Long:  `Create owner and caregiver records directly, for initial setup or operational fixes.`,
}

// createOwnerCmd represents the create-owner command
var createOwnerCmd = &cobra.Command{
	Use:   "create-owner",
	Short: "Create a monitored owner",
	Run: func(cmd *cobra.Command, args []string) {
		createOwner()
	},
}

// createCaregiverCmd represents the create-caregiver command
var createCaregiverCmd = &cobra.Command{
	Use:   "create-caregiver",
	Short: "Create a caregiver",
	Run: func(cmd *cobra.Command, args []string) {
		createCaregiver()
	},
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(createOwnerCmd)
	accountsCmd.AddCommand(createCaregiverCmd)

	for _, c := range []*cobra.Command{createOwnerCmd, createCaregiverCmd} {
		c.Flags().StringVarP(&accountName, "name", "n", "", "Full name (required)")
		c.Flags().StringVarP(&accountEmail, "email", "e", "", "Email address (required)")
		c.Flags().StringVarP(&accountPhone, "phone", "p", "", "Phone number")
		c.MarkFlagRequired("name")
		c.MarkFlagRequired("email")
	}

	createCaregiverCmd.Flags().BoolVar(&notifyEmail, "notify-email", true, "Deliver alerts by email")
	createCaregiverCmd.Flags().BoolVar(&notifyPush, "notify-push", false, "Deliver alerts by push")
}

// openRepository connects to the database and returns a repository
func openRepository() repository.Repository {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Info("Connecting to database...")
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	return repository.NewRepository(db)
}

// createOwner creates a new owner record
func createOwner() {
	repo := openRepository()

	owner := &models.Owner{
		Name:  accountName,
		Email: accountEmail,
		Phone: accountPhone,
	}

	if err := repo.CreateOwner(context.Background(), owner); err != nil {
		log.Fatalf("Failed to create owner: %v", err)
	}

	fmt.Printf("Owner created with ID %d\n", owner.ID)
}

// createCaregiver creates a new caregiver record
func createCaregiver() {
	repo := openRepository()

	caregiver := &models.Caregiver{
		Name:          accountName,
		Email:         accountEmail,
		Phone:         accountPhone,
		NotifyByEmail: notifyEmail,
		NotifyByPush:  notifyPush,
	}

	if err := repo.CreateCaregiver(context.Background(), caregiver); err != nil {
		log.Fatalf("Failed to create caregiver: %v", err)
	}

	fmt.Printf("Caregiver created with ID %d\n", caregiver.ID)
}
