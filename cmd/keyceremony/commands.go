package main

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"

	"go.dedis.ch/keyceremony/election"
	"go.dedis.ch/keyceremony/group"
	"go.dedis.ch/keyceremony/publish"
	"go.dedis.ch/keyceremony/trusted"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
	"gopkg.in/urfave/cli.v1"
)

var commandRun = cli.Command{
	Name:      "run",
	Aliases:   []string{"r"},
	Usage:     "runs the key ceremony for all guardians in this process",
	ArgsUsage: "election.toml",
	Action:    runCeremony,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "out, o",
			Value: "election.db",
			Usage: "file receiving the election record",
		},
		cli.StringFlag{
			Name:  "trustees, t",
			Usage: "file receiving the private trustees, kept apart from the record",
		},
		cli.IntFlag{
			Name:  "guardians, n",
			Usage: "overrides the number of guardians of the configuration",
		},
		cli.IntFlag{
			Name:  "quorum, k",
			Usage: "overrides the quorum of the configuration",
		},
		cli.StringFlag{
			Name:  "manifest, m",
			Usage: "overrides the manifest of the configuration",
		},
		cli.StringFlag{
			Name:  "created-by",
			Value: trusted.DefaultCreatedBy,
			Usage: "operator recorded in the metadata",
		},
		cli.BoolFlag{
			Name:  "strict",
			Usage: "fail on any rejected encrypted share",
		},
	},
}

var commandShow = cli.Command{
	Name:      "show",
	Aliases:   []string{"s"},
	Usage:     "verifies and prints an election record",
	ArgsUsage: "election.db",
	Action:    showRecord,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "guardian, g",
			Usage: "prints the commitments of this guardian only",
		},
	},
}

func runCeremony(c *cli.Context) error {
	if c.NArg() != 1 {
		return xerrors.New("please give the election configuration as argument")
	}
	path := c.Args().First()
	cfg, ctx, err := readConfig(c, path)
	if err != nil {
		return err
	}

	out, trustees := c.String("out"), c.String("trustees")
	if trustees == "" {
		return xerrors.New("please give the file of the private trustees with --trustees")
	}
	if filepath.Clean(out) == filepath.Clean(trustees) {
		return xerrors.New("the private trustees must not go to the election record file")
	}

	record, err := publish.Open(out)
	if err != nil {
		return err
	}
	defer record.Close()
	private, err := publish.Open(trustees)
	if err != nil {
		return err
	}
	defer private.Close()

	ei, err := trusted.Run(ctx, cfg, record, private, trusted.Options{
		CreatedBy:   c.String("created-by"),
		CreatedFrom: path,
		Strict:      c.Bool("strict"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Joint public key:", ei.JointPublicKey)
	fmt.Fprintln(c.App.Writer, "Extended base hash:", hex.EncodeToString(ei.ExtendedBaseHash))
	return nil
}

// readConfig reads the configuration and applies the overrides of the
// command line.
func readConfig(c *cli.Context, path string) (*election.Config, *group.Context, error) {
	cfg, err := election.DecodeConfig(path)
	if err != nil {
		return nil, nil, err
	}
	if m := c.String("manifest"); m != "" {
		cfg.Manifest = m
	}
	if n := c.Int("guardians"); n > 0 {
		cfg.NumberOfGuardians = n
	}
	if k := c.Int("quorum"); k > 0 {
		cfg.Quorum = k
	}
	ctx, err := group.NewContext(cfg.GroupName())
	if err != nil {
		return nil, nil, err
	}
	if cfg.Manifest == "" {
		return nil, nil, xerrors.New("no manifest given")
	}
	if err := cfg.LoadManifest(ctx, cfg.Manifest); err != nil {
		return nil, nil, err
	}
	log.Lvlf2("Configuration %s: %d guardians, quorum %d, group %s",
		cfg.Name, cfg.NumberOfGuardians, cfg.Quorum, ctx.Name())
	return cfg, ctx, cfg.Validate()
}

func showRecord(c *cli.Context) error {
	if c.NArg() != 1 {
		return xerrors.New("please give the election record as argument")
	}
	store, err := publish.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer store.Close()
	name, err := store.GroupName()
	if err != nil {
		return err
	}
	ctx, err := group.NewContext(name)
	if err != nil {
		return err
	}
	ei, err := store.ReadElectionInitialized(ctx)
	if err != nil {
		return err
	}
	if err := ei.Validate(ctx); err != nil {
		return xerrors.Errorf("invalid election record: %v", err)
	}

	w := c.App.Writer
	if id := c.String("guardian"); id != "" {
		g := ei.Guardian(id)
		if g == nil {
			return xerrors.Errorf("no guardian %s in the record", id)
		}
		fmt.Fprintf(w, "Guardian %s x=%d\n", g.GuardianID, g.XCoordinate)
		for j, commitment := range g.CoefficientCommitments() {
			fmt.Fprintf(w, "  K%d=%s\n", j, commitment)
		}
		return nil
	}

	fmt.Fprintf(w, "Election %q, group %s\n", ei.Config.Name, name)
	fmt.Fprintf(w, "Guardians: %d, quorum %d\n", ei.Config.NumberOfGuardians, ei.Config.Quorum)
	fmt.Fprintln(w, "Joint public key:", ei.JointPublicKey)
	fmt.Fprintln(w, "Manifest hash:", hex.EncodeToString(ei.ManifestHash))
	fmt.Fprintln(w, "Base hash:", hex.EncodeToString(ei.BaseHash))
	fmt.Fprintln(w, "Extended base hash:", hex.EncodeToString(ei.ExtendedBaseHash))
	for _, g := range ei.Guardians {
		fmt.Fprintf(w, "  %s x=%d key=%s\n", g.GuardianID, g.XCoordinate, g.PublicKey())
	}
	keys := make([]string, 0, len(ei.Metadata))
	for k := range ei.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %s\n", k, ei.Metadata[k])
	}
	return nil
}
