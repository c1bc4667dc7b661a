// Package library manages the user's curation of the media library:
// keywords that point at folders, global tags, tags attached to individual
// galleries, and favorites. State lives in a store.Store so it survives
// restarts and can be shared between instances through the redis backend.
//
// Search combines all of it:
//
//	results, err := lib.Search(ctx, "holidays")
//
// returns the folders of the "holidays" keyword if one exists, otherwise the
// galleries tagged "holidays", otherwise every folder whose name contains
// "holidays" below any keyword path.
package library
