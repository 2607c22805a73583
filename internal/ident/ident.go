// Package ident resolves the acting user's name and email, the values
// recorded by the user_name and user_email deriver sources.
package ident

import (
	"os"
	"os/exec"
	"os/user"
	"strings"

	"github.com/aidanlsb/munin/internal/config"
)

// Identity is who is running the command.
type Identity struct {
	Name  string
	Email string
}

// Overrides are explicit identity flags. A non-empty value wins over every
// other source.
type Overrides struct {
	Name  string
	Email string
}

// Resolve picks name and email independently, each falling through:
// override flag, [user] in the global config, git config, OS username
// (name only; the email fallback is empty).
func Resolve(over Overrides, cfg *config.Config) Identity {
	id := Identity{Name: over.Name, Email: over.Email}

	if cfg != nil {
		if id.Name == "" {
			id.Name = strings.TrimSpace(cfg.User.Name)
		}
		if id.Email == "" {
			id.Email = strings.TrimSpace(cfg.User.Email)
		}
	}

	if id.Name == "" {
		id.Name = gitConfigValue("user.name")
	}
	if id.Email == "" {
		id.Email = gitConfigValue("user.email")
	}

	if id.Name == "" {
		id.Name = osUserName()
	}
	return id
}

func gitConfigValue(key string) string {
	cmd := exec.Command("git", "config", key)

	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

func osUserName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
