/*
Package filesystem provides filesystem operations with automatic retry logic
for NFS stale file handle errors.

Media libraries are frequently mounted over NFS. ESTALE (errno 116) shows up
when a file handle is invalidated on the server side; it is transient and
worth a few retries. Every other error fails immediately.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())

Defaults: 3 retries, 50ms initial backoff doubling up to 500ms.

Metrics are reported through an [Observer] registered with [SetObserver];
the metrics package provides the Prometheus implementation. Volume labels
come from a [VolumeResolver] mapping path prefixes to names such as "cache"
or "data".
*/
package filesystem
