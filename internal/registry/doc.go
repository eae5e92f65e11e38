// Package registry resolves, downloads and publishes profiles through the
// public registry and any private registries configured in the disk config.
//
// Lookups query registries one at a time, public first, then private
// registries in config order. A registry that fails contributes no results;
// it never aborts the search of the others.
package registry
