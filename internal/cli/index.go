package cli

import (
	"math"

	"github.com/spf13/cobra"

	"github.com/coronin/Crisprs"
	"github.com/coronin/Crisprs/format"
	"github.com/coronin/Crisprs/index"
	"github.com/coronin/Crisprs/sequence"
)

type indexFlags struct {
	output      string
	inputs      []string
	assembly    string
	species     string
	speciesID   int
	seqLength   int
	pamWidth    int
	noPAM       bool
	externalIDs bool
	firstID     uint64
	publish     string
}

func (a *app) newIndexCmd() *cobra.Command {
	var f indexFlags
	cmd := &cobra.Command{
		Use:   "index -o OUT -i IN [-i IN ...] -a ASSEMBLY -s SPECIES -e SPECIES_ID",
		Short: "Create a binary index of CRISPR sites",
		Long: `Create a binary index from CSV site lists, concatenated in argument order.

Each line is chr,start,strand,seq[,pam[,flags]], or with --external-ids
id,chr,start,strand,seq[,pam[,flags]]. Lines starting with # are skipped.
Inputs ending in .gz, .zst or .lz4 are decompressed; "-" reads standard input.`,
		Example: "  crisprs index -i human_chr1-11.csv -i human_chr12_on.csv -o index.crx -s Human -a GRCh38 -e 1",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.buildConfig(cmd)
			if err != nil {
				return err
			}
			cfg.Stdin = a.streams.In
			opts := []crisprs.Option{crisprs.WithLogger(a.log), crisprs.WithResolver(a.cfg.Resolver())}

			stats, err := crisprs.Build(cmd.Context(), cfg, opts...)
			if err != nil {
				return err
			}
			for _, fs := range stats.Files {
				a.log.Info("input indexed", "file", fs.Path, "records", fs.Records)
			}
			if f.publish != "" {
				if _, err := crisprs.Publish(cmd.Context(), f.output, f.publish, opts...); err != nil {
					return err
				}
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "index file to create")
	fl.StringArrayVarP(&f.inputs, "input", "i", nil, "CSV site list (repeatable)")
	fl.StringVarP(&f.assembly, "assembly", "a", "", "assembly, e.g. GRCh38")
	fl.StringVarP(&f.species, "species", "s", "", "species, e.g. Human")
	fl.IntVarP(&f.speciesID, "species-id", "e", -1, "species id used by your database")
	fl.IntVar(&f.seqLength, "seq-length", sequence.DefaultLength, "bases per site")
	fl.IntVar(&f.pamWidth, "pam-width", index.DefaultPAMWidth, "bytes stored for the PAM, 0 for none")
	fl.BoolVar(&f.noPAM, "no-pam", false, "do not store the PAM")
	fl.BoolVar(&f.externalIDs, "external-ids", false, "take identifiers from the first CSV column")
	fl.Uint64Var(&f.firstID, "first-id", index.DefaultFirstID, "first sequential identifier")
	fl.StringVar(&f.publish, "publish", "", "also upload the index to this location")
	return cmd
}

func (f *indexFlags) buildConfig(cmd *cobra.Command) (index.BuildConfig, error) {
	var missing []string
	if f.output == "" {
		missing = append(missing, "-o")
	}
	if len(f.inputs) == 0 {
		missing = append(missing, "-i")
	}
	if f.assembly == "" {
		missing = append(missing, "-a")
	}
	if f.species == "" {
		missing = append(missing, "-s")
	}
	if !cmd.Flags().Changed("species-id") {
		missing = append(missing, "-e")
	}
	if len(missing) > 0 {
		return index.BuildConfig{}, usageErrorf("missing required options: %v", missing)
	}
	if f.speciesID < 0 || f.speciesID > math.MaxUint16 {
		return index.BuildConfig{}, usageErrorf("species id %d out of range 0-%d", f.speciesID, math.MaxUint16)
	}
	if f.seqLength <= 0 || f.seqLength > sequence.MaxLength {
		return index.BuildConfig{}, usageErrorf("seq length %d out of range 1-%d", f.seqLength, sequence.MaxLength)
	}
	if f.firstID == 0 {
		return index.BuildConfig{}, usageErrorf("first id must be positive")
	}
	if f.pamWidth < 0 || f.pamWidth > format.MaxPAMWidth {
		return index.BuildConfig{}, usageErrorf("pam width %d out of range 0-%d", f.pamWidth, format.MaxPAMWidth)
	}
	// An explicit zero width stores no PAM rather than the default width.
	noPAM := f.noPAM || (cmd.Flags().Changed("pam-width") && f.pamWidth == 0)

	policy := index.Sequential
	if f.externalIDs {
		policy = index.External
	}
	return index.BuildConfig{
		Inputs:       f.inputs,
		Output:       f.output,
		Assembly:     f.assembly,
		Species:      f.species,
		SpeciesID:    uint16(f.speciesID),
		HasSpeciesID: true,
		SeqLength:    f.seqLength,
		PAMWidth:     f.pamWidth,
		NoPAM:        noPAM,
		IDPolicy:     policy,
		FirstID:      f.firstID,
	}, nil
}
