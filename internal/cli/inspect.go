package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coronin/Crisprs"
	"github.com/coronin/Crisprs/format"
)

func (a *app) newInspectCmd() *cobra.Command {
	var location string
	cmd := &cobra.Command{
		Use:   "inspect -i INDEX [ID ...]",
		Short: "Print index metadata and sites",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if location == "" {
				return usageErrorf("missing required option -i")
			}
			ids := make([]uint64, len(args))
			for i, arg := range args {
				id, err := strconv.ParseUint(arg, 10, 64)
				if err != nil {
					return usageErrorf("invalid site id %q", arg)
				}
				ids[i] = id
			}

			db, err := crisprs.Open(cmd.Context(), location,
				crisprs.WithLogger(a.log),
				crisprs.WithResolver(a.cfg.Resolver()),
			)
			if err != nil {
				return err
			}
			defer db.Close()

			tw := tabwriter.NewWriter(a.streams.Out, 0, 4, 2, ' ', 0)
			writeMetadata(tw, db.Location(), db.Metadata())
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, id := range ids {
				rec, err := db.Record(id)
				if err != nil {
					a.log.Warn("site skipped", "id", id, "error", err)
					continue
				}
				fmt.Fprintf(a.streams.Out, "%d\t%s\t%d\t%s\t%s\t%s\t%d\n",
					rec.ID, rec.Contig, rec.Start, rec.Strand, rec.Seq, rec.PAM, rec.Flags)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&location, "index", "i", "", "index file or location")
	return cmd
}

func writeMetadata(tw *tabwriter.Writer, location string, m format.Metadata) {
	speciesID := "-"
	if m.HasSpeciesID {
		speciesID = strconv.Itoa(int(m.SpeciesID))
	}
	ids := "sequential"
	if m.ExternalIDs {
		ids = "external"
	}
	fmt.Fprintf(tw, "index:\t%s\n", location)
	fmt.Fprintf(tw, "assembly:\t%s\n", m.Assembly)
	fmt.Fprintf(tw, "species:\t%s\n", m.Species)
	fmt.Fprintf(tw, "species id:\t%s\n", speciesID)
	fmt.Fprintf(tw, "sites:\t%d\n", m.NumSeqs)
	fmt.Fprintf(tw, "seq length:\t%d\n", m.SeqLength)
	fmt.Fprintf(tw, "pam width:\t%d\n", m.PAMWidth)
	fmt.Fprintf(tw, "ids:\t%s (first %d, dense %t)\n", ids, m.FirstID, m.DenseIDs)
}
