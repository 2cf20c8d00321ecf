package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mosgim/platform/services/user/internal/service"
)

func newMigrateCommand(opts *storeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the user service tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withService(cmd, func(context.Context, *service.AuthService) error {
				printf(cmd.OutOrStdout(), "schema is up to date\n")
				return nil
			})
		},
	}
}

func newSeedRolesCommand(opts *storeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-roles",
		Short: "Create the admin and user roles when missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withService(cmd, func(ctx context.Context, svc *service.AuthService) error {
				if err := svc.EnsureDefaultRoles(ctx); err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "default roles present\n")
				return nil
			})
		},
	}
}

func newCreateServiceCommand(opts *storeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create-service NAME",
		Short: "Register a downstream service that users can be granted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd, func(ctx context.Context, svc *service.AuthService) error {
				created, err := svc.CreateService(ctx, args[0])
				if err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "service %q created with id %d\n", created.Name, created.ID)
				return nil
			})
		},
	}
}

func newGrantCommand(opts *storeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "grant USER_ID SERVICE_ID",
		Short: "Give a user access to a service",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0])
			if err != nil {
				return err
			}
			serviceID, err := parseID(args[1])
			if err != nil {
				return err
			}
			return opts.withService(cmd, func(ctx context.Context, svc *service.AuthService) error {
				granted, err := svc.GrantService(ctx, userID, serviceID)
				if err != nil {
					return err
				}
				if !granted {
					printf(cmd.OutOrStdout(), "user %d already has access to service %d\n", userID, serviceID)
					return nil
				}
				printf(cmd.OutOrStdout(), "granted service %d to user %d\n", serviceID, userID)
				return nil
			})
		},
	}
}

func newListCommand(opts *storeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print roles and services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withService(cmd, func(ctx context.Context, svc *service.AuthService) error {
				roles, err := svc.ListRoles(ctx)
				if err != nil {
					return err
				}
				services, err := svc.ListServices(ctx)
				if err != nil {
					return err
				}
				claimed, err := svc.BootstrapClaimed(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				bootstrap := "open"
				if claimed {
					bootstrap = "claimed"
				}
				printf(out, "bootstrap\t%s\n", bootstrap)
				for _, r := range roles {
					printf(out, "role\t%d\t%s\n", r.ID, r.Name)
				}
				for _, s := range services {
					printf(out, "service\t%d\t%s\n", s.ID, s.Name)
				}
				return nil
			})
		},
	}
}
