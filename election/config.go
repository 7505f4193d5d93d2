// Package election holds the election configuration consumed by the key
// ceremony and the initialized election record it produces.
package election

import (
	"io/ioutil"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.dedis.ch/keyceremony/group"
	"golang.org/x/xerrors"
)

// Config is the input of a key ceremony. It is read from a toml file such
// as:
//
//	Name = "general-2026"
//	Group = "Ed25519"
//	NumberOfGuardians = 5
//	Quorum = 3
//	Manifest = "manifest.json"
//
//	[Metadata]
//	  Jurisdiction = "Vaud"
type Config struct {
	Name string
	// Group is the name of the group, Ed25519 when empty.
	Group             string
	NumberOfGuardians int
	Quorum            int
	// Manifest is the path of the election manifest, relative to the
	// configuration file. Only its hash goes into the record.
	Manifest     string
	ManifestHash []byte `toml:"-"`
	Metadata     map[string]string
}

// ReadConfig decodes the toml configuration at path and hashes the
// manifest it names.
func ReadConfig(ctx *group.Context, path string) (*Config, error) {
	cfg, err := DecodeConfig(path)
	if err != nil {
		return nil, err
	}
	if cfg.Manifest != "" {
		if err := cfg.LoadManifest(ctx, cfg.Manifest); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// DecodeConfig decodes the toml configuration at path without reading the
// manifest, whose path is made relative to the working directory.
func DecodeConfig(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, xerrors.Errorf("decoding %s: %v", path, err)
	}
	if cfg.Manifest != "" && !filepath.IsAbs(cfg.Manifest) {
		cfg.Manifest = filepath.Join(filepath.Dir(path), cfg.Manifest)
	}
	return cfg, nil
}

// LoadManifest reads the manifest file and stores its hash.
func (c *Config) LoadManifest(ctx *group.Context, path string) error {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return xerrors.Errorf("reading manifest: %v", err)
	}
	c.Manifest = path
	c.ManifestHash = ManifestHash(ctx, buf)
	return nil
}

// ManifestHash hashes the content of a manifest.
func ManifestHash(ctx *group.Context, manifest []byte) group.Digest {
	return ctx.Hash(nil, group.DomainManifest, manifest)
}

// GroupName returns the configured group or the default one.
func (c *Config) GroupName() string {
	if c.Group == "" {
		return group.DefaultSuiteName
	}
	return c.Group
}

// Validate checks the guardian count and the quorum.
func (c *Config) Validate() error {
	if c.NumberOfGuardians < 1 {
		return xerrors.Errorf("need at least one guardian, got %d", c.NumberOfGuardians)
	}
	if c.Quorum < 1 || c.Quorum > c.NumberOfGuardians {
		return xerrors.Errorf("quorum %d must be between 1 and %d", c.Quorum, c.NumberOfGuardians)
	}
	if len(c.ManifestHash) == 0 {
		return xerrors.New("missing manifest hash")
	}
	return nil
}
