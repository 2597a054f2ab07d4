package domain

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

var ErrChecksumMismatch = errors.New("plugin checksum mismatch")

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Manifest describes an out-of-process plugin binary speaking the message contract.
type Manifest struct {
	ID         string
	Name       string
	Version    string
	Binary     string
	SHA256     string
	Extensions []ExtensionPoint
}

func (m Manifest) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("plugin id is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("plugin binary path is required")
	}
	if m.SHA256 != "" && !sha256Pattern.MatchString(m.SHA256) {
		return fmt.Errorf("plugin sha256 must be lowercase 64-char hex")
	}
	if m.Version != "" {
		if _, err := semver.NewVersion(m.Version); err != nil {
			return fmt.Errorf("plugin version %q: %w", m.Version, err)
		}
	}
	if len(m.Extensions) == 0 {
		return fmt.Errorf("plugin extensions are required")
	}
	seen := map[ExtensionPoint]struct{}{}
	for _, point := range m.Extensions {
		if err := point.Validate(); err != nil {
			return err
		}
		if _, ok := seen[point]; ok {
			return fmt.Errorf("duplicate extension: %s", point)
		}
		seen[point] = struct{}{}
	}
	return nil
}

func (m Manifest) Descriptor() PluginDescriptor {
	name := m.Name
	if name == "" {
		name = m.ID
	}
	return PluginDescriptor{ID: m.ID, Name: name, Version: m.Version, BundlePath: m.Binary}
}
