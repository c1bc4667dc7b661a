// Package gallery lists directories of the media library: their media
// files, their subfolders with a preview file each, and a predominant type.
// It also provides the recursive folder-name search.
package gallery
