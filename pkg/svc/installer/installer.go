// Package installer defines the contract implemented by the platform
// add-on installers.
package installer

import "context"

// Installer defines methods for installing and uninstalling a platform
// component.
type Installer interface {
	// Install installs or upgrades the component.
	Install(ctx context.Context) error

	// Uninstall removes the component. Missing components are not an error.
	Uninstall(ctx context.Context) error
}
