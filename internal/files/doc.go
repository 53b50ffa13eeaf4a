// Package files discovers the artifacts written by the command line tools:
// CSV and XLSX exports in the exports directory and PNG captures in the
// snapshots directory.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths)
//	exports, err := discovery.ListExports()
//	latest, ok := files.GetLatestFile(exports)
package files
