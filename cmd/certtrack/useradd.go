package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"certtrack/internal/store"
	"certtrack/internal/types"
)

var (
	userName     string
	userEmail    string
	userRole     string
	userPhone    string
	userPassword string
)

var useraddCmd = &cobra.Command{
	Use:   "useradd",
	Short: "Create an account from the command line",
	Long: `Creates an account without going through the registration page, which is
useful for bootstrapping the first admin on a fresh install.

Example:
  certtrack useradd --name "Asha Nair" --email asha@example.com --role ADMIN`,
	RunE: runUseradd,
}

func init() {
	useraddCmd.Flags().StringVar(&userName, "name", "", "display name")
	useraddCmd.Flags().StringVar(&userEmail, "email", "", "login email")
	useraddCmd.Flags().StringVar(&userRole, "role", string(types.RoleEngineer), "ADMIN, ENGINEER or ACCOUNTANT")
	useraddCmd.Flags().StringVar(&userPhone, "phone", "", "contact phone")
	useraddCmd.Flags().StringVar(&userPassword, "password", "", "password (prompted when omitted)")
	_ = useraddCmd.MarkFlagRequired("name")
	_ = useraddCmd.MarkFlagRequired("email")
}

func runUseradd(cmd *cobra.Command, args []string) error {
	role := types.Role(strings.ToUpper(strings.TrimSpace(userRole)))
	if !types.ValidRole(role) {
		return fmt.Errorf("invalid role %q", userRole)
	}

	password := userPassword
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.CreateUser(cmd.Context(), &types.User{
		Name:         strings.TrimSpace(userName),
		Email:        userEmail,
		PasswordHash: string(hash),
		Role:         role,
		Phone:        strings.TrimSpace(userPhone),
	})
	if err != nil {
		return err
	}

	logger.Info("user created",
		zap.Int64("id", id),
		zap.String("email", strings.ToLower(userEmail)),
		zap.String("role", string(role)))
	return nil
}
