package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bandit/experiments"
	"bandit/outcome"
	"bandit/session"
	"bandit/store"
	"bandit/task"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bandit",
		Short: "Bandit - outcome generation for multi-armed bandit experiments",
		Long: `Bandit pre-draws everything a multi-armed bandit task pays out: it validates
task configs, generates complete outcome schedules with shuffled arm orders,
and simulates whole batches of sessions to pilot a config before any
participant sees it.`,
		// SilenceUsage prevents printing usage on every error.
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildValidateCmd(),
		buildGenerateCmd(),
		buildSimulateCmd(),
		buildSessionsCmd(),
	)

	return rootCmd
}

func buildValidateCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a task config and report every defect",
		RunE: func(cmd *cobra.Command, args []string) error {
			validated, err := loadValidated(configPath)
			if err != nil {
				return err
			}

			fmt.Printf("ok: %d games, %d arms, %d trials\n",
				validated.Games, validated.Arms, validated.TotalTrials())
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "task.yaml", "Path to the task config")
	return cmd
}

func buildGenerateCmd() *cobra.Command {
	var configPath, outPath string
	var seed uint64
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Draw a complete outcome schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			validated, err := loadValidated(configPath)
			if err != nil {
				return err
			}

			options := []outcome.Option{}
			if cmd.Flags().Changed("seed") {
				options = append(options, outcome.WithSeed(seed))
			}

			schedule, err := outcome.New(validated, options...).Generate()
			if err != nil {
				return err
			}

			if outPath == "" {
				data, err := json.MarshalIndent(schedule, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			if err := schedule.WriteFile(outPath); err != nil {
				return err
			}
			fmt.Printf("wrote schedule (seed %d) to %s\n", schedule.Seed, outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "task.yaml", "Path to the task config")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for a reproducible schedule")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "File to write the schedule to (default stdout)")
	return cmd
}

func buildSimulateCmd() *cobra.Command {
	var configPath, policyName, schedulePath, outDir, dbPath string
	var sessions int
	var seed uint64
	var shared bool
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play simulated sessions against a config",
		RunE: func(cmd *cobra.Command, args []string) error {
			validated, err := loadValidated(configPath)
			if err != nil {
				return err
			}

			batch := experiments.Batch{
				Config:         validated,
				Policy:         policyName,
				Sessions:       sessions,
				Seed:           seed,
				SharedSchedule: shared,
				OutDir:         outDir,
			}
			if !cmd.Flags().Changed("seed") {
				batch.Seed = uint64(time.Now().UnixNano())
			}
			if schedulePath != "" {
				batch.Schedule, err = outcome.ReadFile(schedulePath)
				if err != nil {
					return err
				}
			}

			results, err := experiments.Run(batch)
			if err != nil {
				return err
			}

			if dbPath != "" {
				if err := saveRecords(cmd.Context(), dbPath, results.Records); err != nil {
					return err
				}
			}

			fmt.Printf("payout points: %s\n", results.Summary)
			if results.Dir != "" {
				fmt.Printf("results stored in %s\n", results.Dir)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "task.yaml", "Path to the task config")
	cmd.Flags().StringVar(&policyName, "policy", "random", "Choice policy: random, greedy, softmax or ucb1")
	cmd.Flags().IntVar(&sessions, "sessions", experiments.DefaultSessions, "Number of sessions to simulate")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for a reproducible batch")
	cmd.Flags().StringVar(&schedulePath, "schedule", "", "Pre-generated schedule file to play every session against")
	cmd.Flags().BoolVar(&shared, "shared-schedule", false, "Play every session against one shared schedule")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to store CSV results under")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to save session records to")
	return cmd
}

func buildSessionsCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List the session records in a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			infos, err := db.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Println("no sessions stored")
				return nil
			}

			for _, info := range infos {
				status := "complete"
				if !info.Complete {
					status = "dropout"
				}
				fmt.Printf("%s  %s  trials=%d  points=%.2f  %s\n",
					info.ID, info.Started.Format(time.RFC3339), info.Trials, info.Points, status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "bandit.db", "SQLite database to read")
	return cmd
}

// loadValidated reads and validates a task config in one step.
func loadValidated(path string) (task.Validated, error) {
	cfg, err := task.Load(path)
	if err != nil {
		return task.Validated{}, err
	}
	return task.Validate(cfg)
}

// saveRecords stores every record in a SQLite database.
func saveRecords(ctx context.Context, path string, records []session.Record) error {
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, record := range records {
		if err := db.SaveRecord(ctx, record); err != nil {
			return err
		}
	}

	log.Info().Msgf("saved %d session records to %s", len(records), path)
	return nil
}
