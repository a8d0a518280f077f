package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apperrors "crm/internal/errors"
	"crm/internal/model"
	"crm/internal/service"
	"crm/internal/validation"
)

// operator is the role crmctl acts with. Anyone who can run it already has the database.
const operator = model.RoleSuperAdmin

func newMigrateCmd(with runWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Create or update the users and audit_logs tables.`,
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, _ []string, s *services) error {
			cmd.Println("Running migrations...")
			if err := s.Migrate(); err != nil {
				return err
			}
			cmd.Println("Migrations completed successfully")
			return nil
		}),
	}
}

type createUserInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72,password"`
	FirstName string `json:"first-name" validate:"required,max=50"`
	LastName  string `json:"last-name" validate:"required,max=50"`
	Role      string `json:"role" validate:"required,oneof=USER MANAGER ADMIN SUPER_ADMIN"`
}

func newCreateUserCmd(with runWrapper) *cobra.Command {
	var in createUserInput

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account, optionally with an elevated role",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, _ []string, s *services) error {
			in.Email = validation.NormalizeEmail(in.Email)
			in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
			if err := validation.New().Validate(&in); err != nil {
				return describe(err)
			}

			user, err := s.Auth.Register(cmd.Context(), service.RegisterParams{
				Email:     in.Email,
				Password:  in.Password,
				FirstName: in.FirstName,
				LastName:  in.LastName,
				Role:      model.Role(in.Role),
			})
			if err != nil {
				return err
			}
			cmd.Printf("Created %s (%s) with role %s\n", user.Email, user.ID, user.Role)
			return nil
		}),
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&in.Role, "role", string(model.RoleUser), "USER, MANAGER, ADMIN or SUPER_ADMIN")
	return cmd
}

func newSetActiveCmd(with runWrapper) *cobra.Command {
	var active bool

	cmd := &cobra.Command{
		Use:   "set-active <email>",
		Short: "Activate or deactivate an account",
		Long:  `Deactivating an account also revokes its refresh token.`,
		Args:  cobra.ExactArgs(1),
		RunE: with(func(cmd *cobra.Command, args []string, s *services) error {
			user, err := s.Users.GetUserByEmail(cmd.Context(), validation.NormalizeEmail(args[0]))
			if err != nil {
				return err
			}
			if _, err := s.Users.SetActive(cmd.Context(), operator, user.ID, active); err != nil {
				return err
			}
			state := "deactivated"
			if active {
				state = "activated"
			}
			cmd.Printf("%s %s\n", user.Email, state)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&active, "active", true, "true to activate, false to deactivate")
	return cmd
}

func newUnlockCmd(with runWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <email>",
		Short: "Clear failed login attempts and any lockout",
		Args:  cobra.ExactArgs(1),
		RunE: with(func(cmd *cobra.Command, args []string, s *services) error {
			user, err := s.Users.GetUserByEmail(cmd.Context(), validation.NormalizeEmail(args[0]))
			if err != nil {
				return err
			}
			if _, err := s.Users.Unlock(cmd.Context(), operator, user.ID); err != nil {
				return err
			}
			cmd.Printf("%s unlocked\n", user.Email)
			return nil
		}),
	}
}

// describe flattens validation failures into one line naming the offending flags.
func describe(err error) error {
	var httpErr *apperrors.HTTPError
	if errors.As(err, &httpErr) {
		if details, ok := httpErr.Details.([]validation.FieldError); ok {
			parts := make([]string, 0, len(details))
			for _, d := range details {
				parts = append(parts, "--"+d.Field+" "+d.Message)
			}
			return fmt.Errorf("invalid input: %s", strings.Join(parts, "; "))
		}
	}
	return err
}
