// Package main seeds a Bandly database from a YAML fixture file.
//
// The fixture drives the real registration and membership code paths, so
// seeded data satisfies the same invariants production writes do.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bandly/bandly/internal/band"
	"github.com/bandly/bandly/internal/models"
	"github.com/bandly/bandly/internal/store"
	pgstore "github.com/bandly/bandly/internal/store/postgres"
	"github.com/bandly/bandly/pkg/config"
	"github.com/bandly/bandly/pkg/logger"
)

// Fixture is the root of the seed file.
type Fixture struct {
	Users []UserFixture `yaml:"users"`
	Bands []BandFixture `yaml:"bands"`
}

// UserFixture describes an account and its musician profile.
type UserFixture struct {
	Email       string   `yaml:"email"`
	Password    string   `yaml:"password"`
	DisplayName string   `yaml:"display_name"`
	Region      string   `yaml:"region"`
	Instruments []string `yaml:"instruments"`
	Bio         string   `yaml:"bio"`
}

// BandFixture describes a band, its roster and open invitations.
// The admin creates the band; members join by accepting generated invites.
type BandFixture struct {
	Name    string   `yaml:"name"`
	Region  string   `yaml:"region"`
	Genres  []string `yaml:"genres"`
	Bio     string   `yaml:"bio"`
	Admin   string   `yaml:"admin"`
	Members []string `yaml:"members"`
	Invites []string `yaml:"invites"`
}

func main() {
	file := flag.String("file", "seed.yaml", "Path to the YAML fixture file")
	flag.Parse()

	_ = godotenv.Load()

	log := logger.New(slog.LevelInfo, false)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Error("failed to read fixture file", "error", err, "file", *file)
		os.Exit(1)
	}

	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		log.Error("failed to parse fixture file", "error", err, "file", *file)
		os.Exit(1)
	}

	st, err := pgstore.NewPostgresStore(pgstore.DefaultConfig(cfg.DatabaseDSN), log.Logger)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := pgstore.Migrate(ctx, st.DB()); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	if err := seed(ctx, st, &fixture, log.Logger); err != nil {
		log.Error("seeding failed", "error", err)
		os.Exit(1)
	}

	log.Info("seeding complete",
		"users", len(fixture.Users),
		"bands", len(fixture.Bands),
	)
}

func seed(ctx context.Context, st store.Store, fixture *Fixture, log *slog.Logger) error {
	svc := band.NewService(st, nil, nil, log)

	principals := make(map[string]band.Principal, len(fixture.Users))

	for _, uf := range fixture.Users {
		user, err := seedUser(ctx, st, uf)
		if err != nil {
			return fmt.Errorf("seeding user %s: %w", uf.Email, err)
		}
		principals[uf.Email] = band.Principal{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
		}
		log.Info("seeded user", "email", uf.Email)
	}

	for _, bf := range fixture.Bands {
		admin, ok := principals[bf.Admin]
		if !ok {
			return fmt.Errorf("band %q: admin %q is not in the users list", bf.Name, bf.Admin)
		}

		created, err := svc.CreateBand(ctx, admin, &models.Band{
			Name:   bf.Name,
			Region: bf.Region,
			Genres: bf.Genres,
			Bio:    bf.Bio,
		})
		if err != nil {
			return fmt.Errorf("creating band %q: %w", bf.Name, err)
		}

		// Members join the way real users do: invite, then accept.
		for _, email := range bf.Members {
			member, ok := principals[email]
			if !ok {
				return fmt.Errorf("band %q: member %q is not in the users list", bf.Name, email)
			}
			invite, err := svc.CreateInvite(ctx, created.ID, admin, email)
			if err != nil {
				return fmt.Errorf("inviting %s to %q: %w", email, bf.Name, err)
			}
			if err := svc.AcceptInvite(ctx, invite.ID, member); err != nil {
				return fmt.Errorf("accepting invite for %s to %q: %w", email, bf.Name, err)
			}
		}

		// Open invitations left pending.
		for _, email := range bf.Invites {
			if _, err := svc.CreateInvite(ctx, created.ID, admin, email); err != nil {
				return fmt.Errorf("inviting %s to %q: %w", email, bf.Name, err)
			}
		}

		log.Info("seeded band", "name", bf.Name,
			"members", len(bf.Members)+1, "invites", len(bf.Invites))
	}

	return nil
}

func seedUser(ctx context.Context, st store.Store, uf UserFixture) (*models.User, error) {
	if err := models.ValidateCredentials(uf.Email, uf.Password); err != nil {
		return nil, err
	}

	// Re-running the seed against an existing database is allowed; existing
	// accounts are reused as-is.
	existing, err := st.Users().GetByEmail(ctx, uf.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	user, err := st.Users().Create(ctx, uf.Email, uf.Password, uf.DisplayName)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{
		UserID:      user.ID,
		DisplayName: uf.DisplayName,
		Status:      models.StatusMusician,
		Region:      uf.Region,
		Instruments: uf.Instruments,
		Bio:         uf.Bio,
	}
	if err := st.Profiles().Upsert(ctx, profile); err != nil {
		return nil, err
	}

	return user, nil
}
