package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "crm/internal/errors"
	"crm/internal/model"
	"crm/internal/service"
	"crm/internal/validation"
)

// seedUser is one entry of a seed document.
type seedUser struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72,password"`
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Role      string `json:"role" validate:"omitempty,oneof=USER MANAGER ADMIN SUPER_ADMIN"`
	Active    *bool  `json:"active"`
}

type seedReport struct {
	Created int
	Skipped int
	Invalid int
}

func newSeedCmd(with runWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file-or-url>",
		Short: "Create accounts from a JSON document",
		Long: `Reads a JSON array of {email, password, firstName, lastName, role, active}
from a local file or an http(s) URL. Existing emails are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: with(func(cmd *cobra.Command, args []string, s *services) error {
			users, err := loadSeed(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("Seeding %d users...\n", len(users))

			report, err := seedUsers(cmd.Context(), s, users, func(format string, a ...any) {
				cmd.Printf(format+"\n", a...)
			})
			if err != nil {
				return err
			}
			cmd.Printf("Seed completed: %d created, %d already present, %d invalid\n",
				report.Created, report.Skipped, report.Invalid)
			return nil
		}),
	}
}

func loadSeed(ctx context.Context, source string) ([]seedUser, error) {
	var body []byte
	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, err = fetchSeed(ctx, source)
	} else {
		body, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, err
	}

	var users []seedUser
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("parse seed document: %w", err)
	}
	return users, nil
}

func fetchSeed(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch seed document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("seed source returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// seedUsers registers each valid entry. Entries whose email already exists count as skipped.
func seedUsers(ctx context.Context, s *services, users []seedUser, logf func(string, ...any)) (seedReport, error) {
	var report seedReport
	v := validation.New()

	for i, u := range users {
		u.Email = validation.NormalizeEmail(u.Email)
		u.Role = strings.ToUpper(strings.TrimSpace(u.Role))
		if err := v.Validate(&u); err != nil {
			logf("  #%d %s: %v", i, u.Email, describe(err))
			report.Invalid++
			continue
		}

		created, err := s.Auth.Register(ctx, service.RegisterParams{
			Email:     u.Email,
			Password:  u.Password,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      model.Role(u.Role),
		})
		if errors.Is(err, apperrors.ErrEmailTaken) {
			report.Skipped++
			continue
		}
		if err != nil {
			return report, fmt.Errorf("register %s: %w", u.Email, err)
		}
		report.Created++

		if u.Active != nil && !*u.Active {
			if _, err := s.Users.SetActive(ctx, operator, created.ID, false); err != nil {
				return report, fmt.Errorf("deactivate %s: %w", u.Email, err)
			}
		}
	}
	return report, nil
}
