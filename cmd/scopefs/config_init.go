package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/sagarc03/scopefs"
	"github.com/sagarc03/scopefs/journal"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create and manage configuration files",
	// Generating a config must work even when the current one is invalid.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file interactively",
	Long: `Write a config file interactively.

You will be prompted for:
  - Directory to serve
  - Port and server mode
  - Whether to accept uploads, and where to journal them
  - Optional basic auth credentials (the password is stored as a bcrypt hash)`,
	RunE: runConfigInit,
}

var configHashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print a bcrypt hash for auth.basic.password_hash",
	RunE:  runHashPassword,
}

func init() {
	configInitCmd.Flags().StringP("output", "o", "config.yaml", "file to write")
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file without asking")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configHashPasswordCmd)
	rootCmd.AddCommand(configCmd)
}

// initAnswers are the values collected by config init.
type initAnswers struct {
	StoragePath  string
	Port         int
	Mode         string
	Uploads      bool
	JournalType  string
	JournalDSN   string
	Username     string
	PasswordHash string
}

type fileConfig struct {
	Server  fileServer   `yaml:"server"`
	Storage fileStorage  `yaml:"storage"`
	Upload  fileUpload   `yaml:"upload"`
	Auth    *fileAuth    `yaml:"auth,omitempty"`
	Journal *fileJournal `yaml:"journal,omitempty"`
}

type fileServer struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Mode         string `yaml:"mode"`
	CacheControl string `yaml:"cache_control"`
}

type fileStorage struct {
	Path string `yaml:"path"`
}

type fileUpload struct {
	Enabled bool `yaml:"enabled"`
}

type fileAuth struct {
	Basic fileBasicAuth `yaml:"basic"`
}

type fileBasicAuth struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

type fileJournal struct {
	Type  string `yaml:"type"`
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// renderConfig turns the answers into the YAML document written to disk.
func renderConfig(a initAnswers) ([]byte, error) {
	fc := fileConfig{
		Server: fileServer{
			Host:         "0.0.0.0",
			Port:         a.Port,
			Mode:         a.Mode,
			CacheControl: scopefs.DefaultCacheDirective.String(),
		},
		Storage: fileStorage{Path: a.StoragePath},
		Upload:  fileUpload{Enabled: a.Uploads},
	}

	if a.Username != "" {
		fc.Auth = &fileAuth{Basic: fileBasicAuth{Username: a.Username, PasswordHash: a.PasswordHash}}
	}

	if a.Uploads && a.JournalType != "" && a.JournalType != journal.TypeNone {
		fc.Journal = &fileJournal{
			Type:  a.JournalType,
			DSN:   a.JournalDSN,
			Table: scopefs.DefaultJournalTable,
		}
	}

	out, err := yaml.Marshal(&fc)
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return out, nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	output, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(output); err == nil && !force {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("%s already exists. Overwrite it", output),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	answers, err := promptAnswers()
	if err != nil {
		return handlePromptError(err)
	}

	data, err := renderConfig(answers)
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", output)
	fmt.Printf("Start the server with: scopefs serve --config %s\n", output)
	return nil
}

func promptAnswers() (initAnswers, error) {
	var a initAnswers
	var err error

	pathPrompt := promptui.Prompt{
		Label:   "Directory to serve",
		Default: ".",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("directory is required")
			}
			return nil
		},
	}
	if a.StoragePath, err = pathPrompt.Run(); err != nil {
		return a, err
	}

	portPrompt := promptui.Prompt{
		Label:   "Port",
		Default: "7878",
		Validate: func(input string) error {
			port, convErr := strconv.Atoi(input)
			if convErr != nil || port < 1 || port > 65535 {
				return errors.New("port must be a number between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return a, err
	}
	a.Port, _ = strconv.Atoi(portStr)

	modeSelect := promptui.Select{
		Label: "Server mode",
		Items: []string{string(scopefs.ModeExplorer), string(scopefs.ModeStatic), string(scopefs.ModeSPA)},
	}
	if _, a.Mode, err = modeSelect.Run(); err != nil {
		return a, err
	}

	if a.Uploads, err = confirm("Accept uploads"); err != nil {
		return a, err
	}

	if a.Uploads {
		journalSelect := promptui.Select{
			Label: "Upload journal",
			Items: []string{journal.TypeNone, journal.TypeSQLite, journal.TypePostgres},
		}
		if _, a.JournalType, err = journalSelect.Run(); err != nil {
			return a, err
		}

		switch a.JournalType {
		case journal.TypeSQLite:
			dsnPrompt := promptui.Prompt{Label: "SQLite file", Default: "scopefs.db"}
			if a.JournalDSN, err = dsnPrompt.Run(); err != nil {
				return a, err
			}
		case journal.TypePostgres:
			dsnPrompt := promptui.Prompt{
				Label: "Postgres DSN",
				Validate: func(input string) error {
					if !strings.HasPrefix(input, "postgres://") && !strings.HasPrefix(input, "postgresql://") {
						return errors.New("DSN must start with postgres://")
					}
					return nil
				},
			}
			if a.JournalDSN, err = dsnPrompt.Run(); err != nil {
				return a, err
			}
		}
	}

	userPrompt := promptui.Prompt{Label: "Basic auth username (empty for none)"}
	if a.Username, err = userPrompt.Run(); err != nil {
		return a, err
	}

	if a.Username != "" {
		if a.PasswordHash, err = promptPasswordHash(); err != nil {
			return a, err
		}
	}

	return a, nil
}

// confirm treats promptui's abort (answering no) as false.
func confirm(label string) (bool, error) {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := prompt.Run()
	if errors.Is(err, promptui.ErrAbort) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func promptPasswordHash() (string, error) {
	passwordPrompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(input string) error {
			if len(input) < 8 {
				return errors.New("password must be at least 8 characters")
			}
			return nil
		},
	}
	password, err := passwordPrompt.Run()
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func runHashPassword(_ *cobra.Command, _ []string) error {
	hash, err := promptPasswordHash()
	if err != nil {
		return handlePromptError(err)
	}
	fmt.Println(hash)
	return nil
}

func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
