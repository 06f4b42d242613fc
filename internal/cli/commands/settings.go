package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ManikGarg316/rest-catalog-server/internal/cli/config"
	"github.com/ManikGarg316/rest-catalog-server/internal/logging"
)

// settings is what every command reads before doing work
type settings struct {
	env        config.Env
	environ    map[string]string
	deployment *config.Config
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	snapshot := environ()

	env, err := config.ParseEnv(snapshot)
	if err != nil {
		return nil, err
	}

	path := env.ConfigFile
	if flag, _ := cmd.Flags().GetString("config"); flag != "" {
		path = flag
	}
	deployment, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	return &settings{env: env, environ: snapshot, deployment: deployment}, nil
}

func (s *settings) logger() (*zap.Logger, error) {
	logger, err := logging.New(s.env.LogLevel, logging.Format(s.env.LogFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
