package cli

import (
	"github.com/spf13/cobra"

	"github.com/coronin/Crisprs"
)

func (a *app) newPublishCmd() *cobra.Command {
	var path, to string
	cmd := &cobra.Command{
		Use:     "publish -i INDEX --to LOCATION",
		Short:   "Upload a built index to a blob store",
		Example: "  crisprs publish -i grch38.crx --to s3://genomes/grch38.crx",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" || to == "" {
				return usageErrorf("both -i and --to are required")
			}
			_, err := crisprs.Publish(cmd.Context(), path, to,
				crisprs.WithLogger(a.log),
				crisprs.WithResolver(a.cfg.Resolver()),
			)
			return err
		},
	}
	cmd.Flags().StringVarP(&path, "index", "i", "", "local index file")
	cmd.Flags().StringVar(&to, "to", "", "destination location")
	return cmd
}
