// Package orphan sweeps mirror records against the host's live library
// listing and retires mirrors whose source or target library was removed
// outside prism's control.
package orphan
