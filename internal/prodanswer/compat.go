package prodanswer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var ErrIncompatible = errors.New("incompatible backend version")

// CheckCompatibility verifies the backend version reported by ServiceInfo
// against a semver constraint such as ">=1.0.0 <2.0.0". An empty constraint
// accepts any backend.
func CheckCompatibility(info *ServiceInfo, constraint string) error {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("parse version constraint %q: %w", constraint, err)
	}

	if info == nil || strings.TrimSpace(info.Version) == "" {
		return fmt.Errorf("%w: backend did not report a version", ErrIncompatible)
	}

	v, err := semver.NewVersion(strings.TrimSpace(info.Version))
	if err != nil {
		return fmt.Errorf("%w: parse backend version %q: %v", ErrIncompatible, info.Version, err)
	}

	if !c.Check(v) {
		return fmt.Errorf("%w: backend %s does not satisfy %s", ErrIncompatible, v, constraint)
	}

	return nil
}
