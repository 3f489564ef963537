package v1alpha1

import "fmt"

// Validate checks the Bootstrap configuration for broken invariants.
// All violations are reported, not just the first one.
func (b *Bootstrap) Validate() error {
	var violations []error

	if b.Spec.Cluster.Name == "" {
		violations = append(violations, ErrClusterNameEmpty)
	}

	if b.Spec.Cluster.Distribution != "" && !b.Spec.Cluster.Distribution.IsValid() {
		violations = append(
			violations,
			fmt.Errorf("%w: %s", ErrInvalidDistribution, b.Spec.Cluster.Distribution),
		)
	}

	if !b.Spec.Channel.IsValid() {
		violations = append(violations, fmt.Errorf("%w: %s", ErrInvalidChannel, b.Spec.Channel))
	}

	if b.Spec.Certs.Directory == "" {
		violations = append(violations, ErrCertsDirectoryEmpty)
	}

	if b.Spec.WaitTimeout.Duration <= 0 {
		violations = append(violations, ErrWaitTimeoutNotPositive)
	}

	return joinViolations(violations)
}

func joinViolations(violations []error) error {
	if len(violations) == 0 {
		return nil
	}

	err := violations[0]
	for _, violation := range violations[1:] {
		err = fmt.Errorf("%w; %w", err, violation)
	}

	return fmt.Errorf("invalid bootstrap configuration: %w", err)
}
