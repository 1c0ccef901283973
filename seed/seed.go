// Package seed loads development teams into the team directory from a YAML file.
package seed

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/misha1235000/SpikeServer/errors"
	"github.com/misha1235000/SpikeServer/models"
)

// TeamWriter is the part of the team directory seeding writes through.
type TeamWriter interface {
	Create(ctx context.Context, name, description, ownerID string) (*models.Team, error)
	GetByName(ctx context.Context, name string) (*models.Team, error)
	AddMember(ctx context.Context, teamID, userID string, role models.TeamRole) error
}

type Member struct {
	User string `koanf:"user"`
	Role string `koanf:"role"`
}

type Team struct {
	Name        string   `koanf:"name"`
	Description string   `koanf:"description"`
	Owner       string   `koanf:"owner"`
	Members     []Member `koanf:"members"`
}

// File is the seed document:
//
//	teams:
//	  - name: core
//	    owner: alice
//	    members:
//	      - user: bob
//	        role: ADMIN
type File struct {
	Teams []Team `koanf:"teams"`
}

// Options defines how to run seeding.
type Options struct {
	Path   string      // YAML seed file
	Logger *log.Logger // optional logger
}

// Result counts what a run did.
type Result struct {
	Created  int
	Existing int
	Members  int
}

// Load parses a seed file.
func Load(path string) (*File, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load seed %s: %w", path, err)
	}
	var f File
	if err := k.Unmarshal("", &f); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return &f, nil
}

// Run applies the seed file at opts.Path. Teams that already exist are
// reused, so running it twice only refreshes member roles. An empty path
// is a no-op.
func Run(ctx context.Context, dir TeamWriter, opts Options) (Result, error) {
	var res Result
	if strings.TrimSpace(opts.Path) == "" {
		return res, nil
	}
	f, err := Load(opts.Path)
	if err != nil {
		return res, err
	}
	logf := func(format string, args ...any) {
		if opts.Logger != nil {
			opts.Logger.Printf(format, args...)
		}
	}

	for _, t := range f.Teams {
		team, err := dir.Create(ctx, t.Name, t.Description, t.Owner)
		switch {
		case err == nil:
			res.Created++
			logf("created team %s", team.Name)
		case errors.Is(err, errors.ErrDuplicateUnique):
			team, err = dir.GetByName(ctx, t.Name)
			if err != nil {
				return res, err
			}
			if team == nil {
				return res, fmt.Errorf("team %q reported as existing but not found", t.Name)
			}
			res.Existing++
		default:
			return res, fmt.Errorf("seed team %q: %w", t.Name, err)
		}

		for _, m := range t.Members {
			role := models.TeamRole(strings.ToUpper(strings.TrimSpace(m.Role)))
			if role == "" {
				role = models.TeamRoleUser
			}
			if !role.IsValid() {
				return res, fmt.Errorf("seed team %q: unknown role %q for %s", t.Name, m.Role, m.User)
			}
			if err := dir.AddMember(ctx, team.ID, m.User, role); err != nil {
				return res, fmt.Errorf("seed team %q member %s: %w", t.Name, m.User, err)
			}
			res.Members++
		}
	}
	logf("seed done: %d created, %d existing, %d members", res.Created, res.Existing, res.Members)
	return res, nil
}

// RunFromEnv seeds from SEED_FILE when it is set.
func RunFromEnv(ctx context.Context, dir TeamWriter) (Result, error) {
	return Run(ctx, dir, Options{
		Path:   os.Getenv("SEED_FILE"),
		Logger: log.New(os.Stdout, "[seed] ", log.LstdFlags),
	})
}
