package platform

import (
	"fmt"
	"slices"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
)

// Ensure DeviceChecker implements the interface.
var _ driven.CompatibilityChecker = (*DeviceChecker)(nil)

// DeviceChecker decides compatibility from a configured device profile.
type DeviceChecker struct {
	sdk      int
	abis     []string
	features map[string]struct{}
}

// NewDeviceChecker creates a checker for a device profile. A nil feature
// list disables the feature check.
func NewDeviceChecker(device domain.DeviceSettings) (*DeviceChecker, error) {
	if device.SDK < domain.MinSDKLevel {
		return nil, fmt.Errorf("%w: device sdk %d", domain.ErrInvalidInput, device.SDK)
	}
	c := &DeviceChecker{
		sdk:  device.SDK,
		abis: slices.Clone(device.ABIs),
	}
	if device.Features != nil {
		c.features = make(map[string]struct{}, len(device.Features))
		for _, f := range device.Features {
			c.features[f] = struct{}{}
		}
	}
	return c, nil
}

// IsCompatible checks the SDK range, native code and required features.
func (c *DeviceChecker) IsCompatible(m domain.Manifest) (bool, error) {
	if m.VersionCode < 0 {
		return false, fmt.Errorf("%w: negative version code %d", domain.ErrValidation, m.VersionCode)
	}
	if m.MinSdkVersion() > c.sdk {
		return false, nil
	}
	if m.MaxSdkVersion != nil && *m.MaxSdkVersion < c.sdk {
		return false, nil
	}
	if len(m.Nativecode) > 0 && !slices.ContainsFunc(m.Nativecode, c.supportsABI) {
		return false, nil
	}
	if c.features != nil {
		for _, f := range m.Features {
			if _, ok := c.features[f.Name]; !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

func (c *DeviceChecker) supportsABI(abi string) bool {
	return slices.Contains(c.abis, abi)
}
