package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"classeviva-tools/internal/classeviva"
	"classeviva-tools/internal/components/chrono"
	"classeviva-tools/internal/components/telemetry"
	"classeviva-tools/lib/configutil"
	"classeviva-tools/lib/gradestore"
	"classeviva-tools/lib/mailer"
	"classeviva-tools/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

type AgendaConfig struct {
	// AuthorId keeps only the events written by this teacher, empty keeps all.
	AuthorId string   `json:"author_id"`
	Days     int      `json:"days"`
	To       []string `json:"to"`
	// ExtraClasses maps class codes to group codes for classes that are not
	// among the teacher's subjects (e.g. substitutions).
	ExtraClasses map[string]string `json:"extra_classes"`
}

type Config struct {
	Classeviva classeviva.Options `json:"classeviva"`
	Telemetry  telemetry.Config   `json:"telemetry"`
	Email      mailer.Config      `json:"email"`
	GradeStore gradestore.Config  `json:"grade_store"`
	Agenda     AgendaConfig       `json:"agenda"`
}

var (
	verbose    *bool
	configName *string

	cfg   Config
	tel   telemetry.API
	clock chrono.API
	otelT telemetry.Telemetry
)

var rootCmd = &cobra.Command{
	Use:   "classeviva",
	Short: "classeviva is a CLI for teachers and coordinators working on the ClasseViva register.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := otelT.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug reports and http traffic.")
	configName = rootCmd.PersistentFlags().String("config", "classeviva.json5", "The config file, searched from the working directory upwards.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// readConfig reads the config file, a missing file leaves the defaults in
// place. Credentials in the environment win over the file.
func readConfig(name string) (Config, error) {
	err := configutil.LoadEnv()
	if err != nil {
		return Config{}, err
	}

	out, err := configutil.ReadRecursively[Config](name)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file found, using defaults", "name", name)
		err = nil
	}
	if err != nil {
		return Config{}, err
	}

	out.Classeviva.Username = configutil.EnvOr("CLASSEVIVA_USERNAME", out.Classeviva.Username)
	out.Classeviva.Password = configutil.EnvOr("CLASSEVIVA_PASSWORD", out.Classeviva.Password)
	out.Email.Password = configutil.EnvOr("CLASSEVIVA_SMTP_PASSWORD", out.Email.Password)
	out.GradeStore.AuthToken = configutil.EnvOr("CLASSEVIVA_DB_TOKEN", out.GradeStore.AuthToken)
	if out.Agenda.Days <= 0 {
		out.Agenda.Days = 7
	}
	if out.GradeStore.File == "" && out.GradeStore.Url == "" {
		out.GradeStore.File = "grades.db"
	}
	return out, nil
}

func setup(ctx context.Context) error {
	telemetry.InitSlog(*verbose)

	var err error
	cfg, err = readConfig(*configName)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	otelT, err = telemetry.Setup(ctx, "classeviva", cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	tel, err = telemetry.NewMeteredAPI(telemetry.SlogAPI{})
	if err != nil {
		return err
	}

	clock, err = chrono.NewStandardImpl()
	return err
}

// openClient logs in, any failure ends the process.
func openClient(ctx context.Context) *classeviva.Client {
	if cfg.Classeviva.Username == "" || cfg.Classeviva.Password == "" {
		serviceutil.Fatal("missing credentials, set CLASSEVIVA_USERNAME and CLASSEVIVA_PASSWORD", nil)
	}
	slog.Info("logging in", "username", cfg.Classeviva.Username)
	client, err := classeviva.Open(ctx, cfg.Classeviva, tel)
	if err != nil {
		serviceutil.Fatal("failed to login to classeviva", err)
	}
	return client
}
