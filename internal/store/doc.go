// Package store provides the namespaced key-value storage behind keywords,
// tags and favorites.
//
// Three backends implement [Store]: [Memory] for tests and throwaway runs,
// [SQLite] (the default, one file under the data directory) and [Redis] for
// instances that share state. [Open] picks one from a [Config].
package store
