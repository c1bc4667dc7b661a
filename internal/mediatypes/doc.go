// Package mediatypes provides shared type definitions for media file handling
// across the gallery.
//
// It is dependency-free so that the gallery, thumbnail and handler packages
// can all import it without creating import cycles.
//
// # File Types
//
//	mediatypes.FileTypeFolder // Directories
//	mediatypes.FileTypeImage  // jpg, jpeg, png, gif, webp, avif
//	mediatypes.FileTypeVideo  // mp4, webm, ogv, mkv
//	mediatypes.FileTypeAudio  // mp3, ogg, wav
//	mediatypes.FileTypeOther  // Everything else
//
// Use [Ext] and [GetFileType] together:
//
//	fileType := mediatypes.GetFileType(mediatypes.Ext(name))
//
// [GetMimeType] returns the Content-Type used when serving raw media.
package mediatypes
