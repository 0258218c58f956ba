package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"partnerdispatch/internal/core/application/usecases/commands"
	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/kernel"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Dispatcher operations on jobs",
	}
	cmd.AddCommand(newJobCreateCmd())
	cmd.AddCommand(newJobCancelCmd())
	cmd.AddCommand(newJobImportCmd())
	return cmd
}

func newJobCreateCmd() *cobra.Command {
	var fixture jobFixture

	c := &cobra.Command{
		Use:   "create",
		Short: "Create an unclaimed job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			create, err := fixture.command()
			if err != nil {
				return err
			}
			return withRoot(cmd.Context(), func(ctx context.Context, root *CompositionRoot) error {
				if err := root.CreateCreateJobCommandHandler().Handle(ctx, create); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created job %s\n", create.JobID())
				return nil
			})
		},
	}

	c.Flags().Float64Var(&fixture.Pickup.Lat, "pickup-lat", 0, "pickup latitude")
	c.Flags().Float64Var(&fixture.Pickup.Lng, "pickup-lng", 0, "pickup longitude")
	c.Flags().Float64Var(&fixture.Drop.Lat, "drop-lat", 0, "drop latitude")
	c.Flags().Float64Var(&fixture.Drop.Lng, "drop-lng", 0, "drop longitude")
	c.Flags().Int64Var(&fixture.Price, "price", 0, "price in minor currency units")
	for _, name := range []string{"pickup-lat", "pickup-lng", "drop-lat", "drop-lng", "price"} {
		_ = c.MarkFlagRequired(name)
	}
	return c
}

func newJobCancelCmd() *cobra.Command {
	var id string

	c := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a job on behalf of the dispatcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobID, err := kernel.UUIDFromString(id)
			if err != nil {
				return err
			}
			return withRoot(cmd.Context(), func(ctx context.Context, root *CompositionRoot) error {
				cancel, err := commands.NewUpdateJobStatusCommand(jobID, job.DispatcherActor(), job.Cancelled)
				if err != nil {
					return err
				}
				snapshot, err := root.CreateUpdateJobStatusCommandHandler().Handle(ctx, cancel)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "job %s is %s\n", snapshot.ID, snapshot.Status)
				return nil
			})
		},
	}

	c.Flags().StringVar(&id, "id", "", "job id")
	_ = c.MarkFlagRequired("id")
	return c
}

func newJobImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create the jobs listed in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			creates, err := parseJobFixtures(f)
			if err != nil {
				return err
			}
			return withRoot(cmd.Context(), func(ctx context.Context, root *CompositionRoot) error {
				handler := root.CreateCreateJobCommandHandler()
				for _, create := range creates {
					if err := handler.Handle(ctx, create); err != nil {
						return fmt.Errorf("job %s: %w", create.JobID(), err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d jobs\n", len(creates))
				return nil
			})
		},
	}
}

type fixturePoint struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

type jobFixture struct {
	ID     string       `yaml:"id"`
	Pickup fixturePoint `yaml:"pickup"`
	Drop   fixturePoint `yaml:"drop"`
	Price  int64        `yaml:"price"`
}

type jobFixtures struct {
	Jobs []jobFixture `yaml:"jobs"`
}

func (f jobFixture) command() (commands.CreateJobCommand, error) {
	id := kernel.NewUUID()
	if f.ID != "" {
		parsed, err := kernel.UUIDFromString(f.ID)
		if err != nil {
			return commands.CreateJobCommand{}, err
		}
		id = parsed
	}
	pickup, err := kernel.NewGeoPoint(f.Pickup.Lat, f.Pickup.Lng)
	if err != nil {
		return commands.CreateJobCommand{}, err
	}
	drop, err := kernel.NewGeoPoint(f.Drop.Lat, f.Drop.Lng)
	if err != nil {
		return commands.CreateJobCommand{}, err
	}
	return commands.NewCreateJobCommand(id, pickup, drop, f.Price)
}

// parseJobFixtures reads a document of the form
//
//	jobs:
//	  - id: 3f7c...        # optional
//	    pickup: {lat: 12.97, lng: 77.59}
//	    drop: {lat: 12.93, lng: 77.62}
//	    price: 15000
//
// Every entry is validated before any is returned.
func parseJobFixtures(r io.Reader) ([]commands.CreateJobCommand, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc jobFixtures
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse job fixtures: %w", err)
	}

	creates := make([]commands.CreateJobCommand, 0, len(doc.Jobs))
	var problems []error
	for i, fixture := range doc.Jobs {
		create, err := fixture.command()
		if err != nil {
			problems = append(problems, fmt.Errorf("jobs[%d]: %w", i, err))
			continue
		}
		creates = append(creates, create)
	}
	if err := errors.Join(problems...); err != nil {
		return nil, err
	}
	return creates, nil
}
