package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	apperrors "github.com/jrsteele09/retail-console/internal/errors"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "List and select stores",
	}
	cmd.AddCommand(tenantListCmd(), tenantSelectCmd())
	return cmd
}

func tenantListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the stores you can select",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()
			list, err := app.ListTenants(ctx)
			if err != nil {
				return explain(err)
			}

			current := app.Tenants.Snapshot().TenantID
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "\tID\tNAME\tREGION")
			for _, t := range list {
				marker := ""
				if t.ID == current {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, t.ID, t.Name, t.Region)
			}
			return w.Flush()
		},
	}
}

func tenantSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <id>",
		Short: "Select the store subsequent requests are scoped to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.SelectTenant(args[0]); err != nil {
				return err
			}
			success("Store %s selected", args[0])
			return nil
		},
	}
}

func getCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Read a store scoped resource, e.g. console get /api/suppliers/42",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			path := args[0]
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}

			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()
			body, err := app.Fetch(ctx, path)
			if err != nil {
				return explain(err)
			}

			var pretty bytes.Buffer
			if !raw && json.Indent(&pretty, body, "", "  ") == nil {
				body = pretty.Bytes()
			}
			fmt.Println(strings.TrimRight(string(body), "\n"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the body as received")
	return cmd
}

// explain turns the recoverable API failures into an instruction for the user
func explain(err error) error {
	switch {
	case errors.Is(err, apperrors.ErrSessionExpired):
		return errors.New("session expired, sign in again with: console login")
	case errors.Is(err, apperrors.ErrTenantUnassigned):
		return errors.New("no usable store selected, pick one with: console tenant list / console tenant select <id>")
	}
	return err
}
