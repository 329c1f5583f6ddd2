package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/nexusfarm/nexus/internal/config"
	"github.com/nexusfarm/nexus/internal/modules/users"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type adminOptions struct {
	username string
	phone    string
	password string
}

func newCreateAdminCmd(global *globalOptions) *cobra.Command {
	opts := &adminOptions{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long: `Create an administrator account in the configured database. Nothing changes
when the username already exists.`,
		Example: `  nexusctl create-admin --username root --phone 9999999999 --password s3cret`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.config()
			if err != nil {
				return err
			}
			return runCreateAdmin(cmd.Context(), cmd.OutOrStdout(), cfg, opts, global.logger(cmd))
		},
	}

	cmd.Flags().StringVar(&opts.username, "username", "", "admin username")
	cmd.Flags().StringVar(&opts.phone, "phone", "", "admin phone number (10 digits)")
	cmd.Flags().StringVar(&opts.password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runCreateAdmin(ctx context.Context, out io.Writer, cfg *config.Config, opts *adminOptions, log zerolog.Logger) error {
	container, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer container.Close()

	svc := users.NewService(container.UserRepo, container.ActivityRepo, nil, log)
	created, err := svc.EnsureAdmin(ctx, opts.username, opts.phone, opts.password)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	if created {
		fmt.Fprintf(out, "✓ Created admin '%s'\n", opts.username)
	} else {
		fmt.Fprintf(out, "Admin '%s' already exists\n", opts.username)
	}
	return nil
}
