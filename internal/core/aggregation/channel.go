package aggregation

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sales channels tracked in every channel breakdown.
const (
	ChannelWeb          = "web"
	ChannelMobile       = "mobile"
	ChannelMarketplace  = "marketplace"
	ChannelDirect       = "direct"
	ChannelSocial       = "social"
	ChannelUnclassified = "unclassified"
)

// Channels is the fixed breakdown cardinality: the five known channels plus unclassified.
var Channels = []string{
	ChannelWeb,
	ChannelMobile,
	ChannelMarketplace,
	ChannelDirect,
	ChannelSocial,
	ChannelUnclassified,
}

// ChannelCatalog normalizes raw channel values from producers.
// Aliases let upstream spellings ("ios", "etsy") fold into a known channel.
type ChannelCatalog struct {
	aliases     map[string]string
	Fingerprint string // SHA-256 of the aliases file; empty for the default catalog
}

// rawCatalog is the on-disk YAML shape:
//
//	aliases:
//	  mobile: [ios, android, app]
//	  marketplace: [etsy, amazon]
type rawCatalog struct {
	Aliases map[string][]string `yaml:"aliases"`
}

// DefaultChannelCatalog knows the five channels and no aliases.
func DefaultChannelCatalog() *ChannelCatalog {
	return &ChannelCatalog{aliases: map[string]string{}}
}

// LoadChannelCatalog reads channel aliases from a YAML file.
// An empty path yields the default catalog.
func LoadChannelCatalog(path string) (*ChannelCatalog, error) {
	if path == "" {
		return DefaultChannelCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading channel catalog %s: %w", path, err)
	}
	return ParseChannelCatalog(data)
}

// ParseChannelCatalog builds a catalog from raw YAML.
func ParseChannelCatalog(data []byte) (*ChannelCatalog, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing channel catalog: %w", err)
	}

	catalog := &ChannelCatalog{
		aliases:     make(map[string]string),
		Fingerprint: fmt.Sprintf("%x", sha256.Sum256(data)),
	}
	for channel, aliases := range raw.Aliases {
		channel = canonicalChannel(channel)
		if !isKnownChannel(channel) {
			return nil, fmt.Errorf("channel catalog: unknown target channel %q", channel)
		}
		for _, alias := range aliases {
			alias = canonicalChannel(alias)
			if isKnownChannel(alias) {
				return nil, fmt.Errorf("channel catalog: alias %q shadows a known channel", alias)
			}
			if prev, ok := catalog.aliases[alias]; ok && prev != channel {
				return nil, fmt.Errorf("channel catalog: alias %q maps to both %q and %q", alias, prev, channel)
			}
			catalog.aliases[alias] = channel
		}
	}
	return catalog, nil
}

// Normalize maps a raw channel value onto one of Channels.
func (c *ChannelCatalog) Normalize(raw string) string {
	ch := canonicalChannel(raw)
	if isKnownChannel(ch) {
		return ch
	}
	if mapped, ok := c.aliases[ch]; ok {
		return mapped
	}
	return ChannelUnclassified
}

// Aliases returns the number of configured aliases.
func (c *ChannelCatalog) Aliases() int {
	return len(c.aliases)
}

func canonicalChannel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isKnownChannel(ch string) bool {
	switch ch {
	case ChannelWeb, ChannelMobile, ChannelMarketplace, ChannelDirect, ChannelSocial:
		return true
	}
	return false
}
