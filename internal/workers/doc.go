/*
Package workers sizes worker pools for bulk thumbnail generation.

Sizing uses runtime.GOMAXPROCS, which Go sets from the container CPU limit,
instead of runtime.NumCPU, which reports the host. On a 64-core node with a
2 CPU limit:

	workers.ForThumbnails(16) // 3
	workers.Count(1.0, 16)    // 2

Operators can pin the count with THUMBNAIL_WORKERS:

	THUMBNAIL_WORKERS=4 thumbcache warm /srv/photos

The cache maintenance tool (cmd/thumbcache) uses ForThumbnails to bound its
errgroup when warming the cache.
*/
package workers
