// Package cache holds helpers shared by the page cache backends in its
// subpackages (local directory, in-memory, Google Cloud Storage).
package cache
