package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sow-signoff/backend/internal/config"
	"sow-signoff/backend/internal/logging"
	"sow-signoff/backend/internal/repository"
	"sow-signoff/backend/internal/services"
	"sow-signoff/backend/pkg/models"
)

type options struct {
	configFile   string
	projectID    string
	assessmentID string
	file         string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "seed",
		Short:         "Load stakeholders and prepare SOW approvals",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to config file")

	stakeholders := &cobra.Command{
		Use:   "stakeholders",
		Short: "Upsert stakeholders from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(ctx context.Context, env *environment) error {
				return seedStakeholders(ctx, env, opts.file)
			})
		},
	}
	stakeholders.Flags().StringVarP(&opts.file, "file", "f", "", "Stakeholder YAML file")
	_ = stakeholders.MarkFlagRequired("file")

	initialize := &cobra.Command{
		Use:   "initialize",
		Short: "Create section approvals for an assessment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(ctx context.Context, env *environment) error {
				return initializeApprovals(ctx, env, opts)
			})
		},
	}
	initialize.Flags().StringVarP(&opts.file, "sections", "s", "", "Section definition YAML file (defaults to config)")

	autoAssign := &cobra.Command{
		Use:   "auto-assign",
		Short: "Recompute required approvers for an assessment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(ctx context.Context, env *environment) error {
				res, err := env.assignments.AutoAssign(ctx, opts.projectID, opts.assessmentID)
				if err != nil {
					return err
				}
				env.logger.Info("Auto-assign complete",
					"updated", len(res.Updated), "unchanged", len(res.Unchanged), "skipped", len(res.Skipped))
				return res.Err()
			})
		},
	}

	for _, cmd := range []*cobra.Command{initialize, autoAssign} {
		cmd.Flags().StringVar(&opts.projectID, "project", "", "Project ID")
		cmd.Flags().StringVar(&opts.assessmentID, "assessment", "", "Assessment ID")
		_ = cmd.MarkFlagRequired("project")
		_ = cmd.MarkFlagRequired("assessment")
	}

	root.AddCommand(stakeholders, initialize, autoAssign)
	return root
}

type environment struct {
	store       repository.Repository
	approvals   *services.ApprovalService
	assignments *services.AssignmentService
	logger      *logging.Logger
}

func withStore(ctx context.Context, opts *options, fn func(context.Context, *environment) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return err
	}
	if cfg.Store.Driver == config.DriverMemory {
		return fmt.Errorf("seeding needs a persistent store; set store.driver to %q or %q", config.DriverPostgres, config.DriverSQLite)
	}
	logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, &environment{
		store:       store,
		approvals:   services.NewApprovalService(store, store, cfg.Approvals.Sections, logger),
		assignments: services.NewAssignmentService(store, store, logger),
		logger:      logger,
	})
}

func seedStakeholders(ctx context.Context, env *environment, path string) error {
	stakeholders, err := loadStakeholders(path)
	if err != nil {
		return err
	}
	for _, st := range stakeholders {
		if err := env.store.UpsertStakeholder(ctx, st); err != nil {
			return fmt.Errorf("failed to upsert stakeholder %s: %w", st.ID, err)
		}
		env.logger.Info("Seeded stakeholder", "id", st.ID, "project_id", st.ProjectID, "name", st.Name)
	}
	env.logger.Info("Seeding complete!", "stakeholders", len(stakeholders))
	return nil
}

func initializeApprovals(ctx context.Context, env *environment, opts *options) error {
	var (
		res *services.InitializeResult
		err error
	)
	if opts.file != "" {
		var defs []models.SectionDefinition
		defs, err = loadSections(opts.file)
		if err != nil {
			return err
		}
		res, err = env.approvals.InitializeSections(ctx, opts.projectID, opts.assessmentID, defs)
	} else {
		res, err = env.approvals.InitializeApprovals(ctx, opts.projectID, opts.assessmentID)
	}
	if err != nil {
		return err
	}
	for _, name := range res.Skipped {
		env.logger.Info("Skipping existing section", "name", name)
	}
	for _, a := range res.Created {
		env.logger.Info("Created section approval", "name", a.SectionName, "id", a.ID, "approvers", len(a.RequiredApprovers))
	}
	return nil
}
