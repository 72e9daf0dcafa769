// Copyright 2026 OpenPoints Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/openpoints-io/tally/database"
	"github.com/openpoints-io/tally/database/models"
	"github.com/openpoints-io/tally/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type seedParticipant struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Diploma     string `yaml:"diploma"`
	YearOfEntry int    `yaml:"yearOfEntry"`
	Email       string `yaml:"email"`
	Balance     int64  `yaml:"balance"`
}

type seedItem struct {
	Name           string `yaml:"name"`
	PointsRequired int64  `yaml:"pointsRequired"`
	Quantity       int64  `yaml:"quantity"`
}

type seedFile struct {
	Participants []seedParticipant `yaml:"participants"`
	Items        []seedItem        `yaml:"items"`
}

func seedRun(args []string, cfg *config.Config) {
	logger := commonRun()

	if err := seedDatabase(args[0], cfg, logger); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func seedDatabase(
	seedPath string,
	cfg *config.Config,
	logger *slog.Logger,
) error {
	buf, err := os.ReadFile(seedPath)
	if err != nil {
		return fmt.Errorf("error reading seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(buf, &seed); err != nil {
		return fmt.Errorf("error parsing seed file: %w", err)
	}

	db, err := database.New(&database.Config{
		DataDir:        cfg.DataDir,
		Logger:         logger,
		BlobPlugin:     cfg.BlobPlugin,
		MetadataPlugin: cfg.MetadataPlugin,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	txn := db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		for _, sp := range seed.Participants {
			participant, err := models.NewParticipant(
				sp.ID,
				sp.Name,
				sp.Balance,
			)
			if err != nil {
				return fmt.Errorf("participant %q: %w", sp.ID, err)
			}
			participant.Diploma = sp.Diploma
			participant.YearOfEntry = sp.YearOfEntry
			participant.Email = sp.Email
			if err := db.SetParticipant(participant, txn); err != nil {
				return fmt.Errorf("participant %q: %w", sp.ID, err)
			}
		}
		for _, si := range seed.Items {
			item, err := models.NewRewardItem(
				si.Name,
				si.PointsRequired,
				si.Quantity,
			)
			if err != nil {
				return fmt.Errorf("item %q: %w", si.Name, err)
			}
			if err := db.SetItem(item, txn); err != nil {
				return fmt.Errorf("item %q: %w", si.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	logger.Info(
		fmt.Sprintf(
			"seeded %d participant(s) and %d item(s)",
			len(seed.Participants),
			len(seed.Items),
		),
		"component", programName,
	)
	return nil
}

func seedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <seed-file>",
		Short: "Populate the database from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			seedRun(args, cfg)
		},
	}
	return cmd
}
