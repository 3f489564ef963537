package v1alpha1

import "errors"

// Validation errors.
var (
	// ErrInvalidDistribution indicates an unsupported distribution value.
	ErrInvalidDistribution = errors.New("invalid distribution")

	// ErrInvalidChannel indicates an unsupported release channel value.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrClusterNameEmpty indicates the cluster name is missing.
	ErrClusterNameEmpty = errors.New("cluster name must not be empty")

	// ErrCertsDirectoryEmpty indicates the certificate directory is missing.
	ErrCertsDirectoryEmpty = errors.New("certs directory must not be empty")

	// ErrWaitTimeoutNotPositive indicates a zero or negative wait timeout.
	ErrWaitTimeoutNotPositive = errors.New("wait timeout must be positive")
)
