package authcore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// PolicyFile is the on-disk form of the role table plus token lifetimes.
//
// YAML:
//
//	access_ttl: 15m
//	refresh_ttl: 168h
//	default_role: mentor
//	roles:
//	  mentor: [viewProfile, sendMessage]
//	  admin: ["*"]
//
// TOML uses the same keys with a [roles] table.
type PolicyFile struct {
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	DefaultRole string
	Roles       map[string][]string
}

type policyDocument struct {
	AccessTTL   string              `yaml:"access_ttl" toml:"access_ttl"`
	RefreshTTL  string              `yaml:"refresh_ttl" toml:"refresh_ttl"`
	DefaultRole string              `yaml:"default_role" toml:"default_role"`
	Roles       map[string][]string `yaml:"roles" toml:"roles"`
}

// LoadPolicyFile reads a policy file, choosing the format by extension:
// .yaml/.yml or .toml.
func LoadPolicyFile(path string) (*PolicyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParsePolicy(data, "yaml")
	case ".toml":
		return ParsePolicy(data, "toml")
	default:
		return nil, fmt.Errorf("policy file %s: unsupported extension", path)
	}
}

// ParsePolicy decodes a policy document in format "yaml" or "toml".
func ParsePolicy(data []byte, format string) (*PolicyFile, error) {
	var doc policyDocument
	switch format {
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode yaml policy: %w", err)
		}
	case "toml":
		md, err := toml.Decode(string(data), &doc)
		if err != nil {
			return nil, fmt.Errorf("decode toml policy: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode toml policy: unknown key %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported policy format %q", format)
	}

	if len(doc.Roles) == 0 {
		return nil, errors.New("policy defines no roles")
	}

	pf := &PolicyFile{
		DefaultRole: doc.DefaultRole,
		Roles:       doc.Roles,
	}
	var err error
	if pf.AccessTTL, err = parseOptionalDuration("access_ttl", doc.AccessTTL); err != nil {
		return nil, err
	}
	if pf.RefreshTTL, err = parseOptionalDuration("refresh_ttl", doc.RefreshTTL); err != nil {
		return nil, err
	}
	if pf.DefaultRole != "" {
		if _, ok := pf.Roles[pf.DefaultRole]; !ok {
			return nil, fmt.Errorf("default_role %q is not defined", pf.DefaultRole)
		}
	}
	return pf, nil
}

// Apply copies the non-zero lifetimes and default role into cfg.
func (p *PolicyFile) Apply(cfg *Config) {
	if p == nil || cfg == nil {
		return
	}
	if p.AccessTTL > 0 {
		cfg.JWT.AccessTTL = p.AccessTTL
	}
	if p.RefreshTTL > 0 {
		cfg.JWT.RefreshTTL = p.RefreshTTL
	}
	if p.DefaultRole != "" {
		cfg.Permission.DefaultRole = p.DefaultRole
	}
}

func parseOptionalDuration(field, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", field)
	}
	return d, nil
}
