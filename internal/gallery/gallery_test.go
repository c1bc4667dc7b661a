package gallery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"media-gallery/internal/mediatypes"
)

// makeTree creates every entry relative to root. Names ending in "/" are
// directories; everything else is a small file.
func makeTree(t *testing.T, root string, entries ...string) {
	t.Helper()
	for _, e := range entries {
		p := filepath.Join(root, e)
		if e[len(e)-1] == '/' {
			if err := os.MkdirAll(p, 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", p, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, []byte("data"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}

func TestList(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root,
		"a.jpg", "b.mp4", "c.mp3", "notes.txt",
		"holiday/clip.webm", "holiday/photo.png",
		"clips/x.mkv",
		"empty/",
	)

	listing, err := New().List(root)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if listing.Name != filepath.Base(root) || listing.Path != root {
		t.Errorf("name/path = %q/%q", listing.Name, listing.Path)
	}

	wantMedia := []struct {
		name string
		typ  mediatypes.FileType
	}{
		{"a.jpg", mediatypes.FileTypeImage},
		{"b.mp4", mediatypes.FileTypeVideo},
		{"c.mp3", mediatypes.FileTypeAudio},
	}
	if len(listing.Media) != len(wantMedia) {
		t.Fatalf("media = %+v, want %d items", listing.Media, len(wantMedia))
	}
	for i, want := range wantMedia {
		got := listing.Media[i]
		if got.Name != want.name || got.Type != want.typ {
			t.Errorf("media[%d] = %s/%s, want %s/%s", i, got.Name, got.Type, want.name, want.typ)
		}
		if got.Size != 4 {
			t.Errorf("media[%d].Size = %d, want 4", i, got.Size)
		}
		if got.Path != filepath.Join(root, want.name) {
			t.Errorf("media[%d].Path = %s", i, got.Path)
		}
	}

	wantThumbs := map[string]string{
		"clips":   filepath.Join(root, "clips", "x.mkv"),
		"empty":   "",
		"holiday": filepath.Join(root, "holiday", "photo.png"),
	}
	if len(listing.Subfolders) != len(wantThumbs) {
		t.Fatalf("subfolders = %+v", listing.Subfolders)
	}
	for _, sf := range listing.Subfolders {
		if sf.Thumbnail != wantThumbs[sf.Name] {
			t.Errorf("%s thumbnail = %q, want %q", sf.Name, sf.Thumbnail, wantThumbs[sf.Name])
		}
	}
}

func TestListErrors(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root, "file.jpg")
	b := New()

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(root, "nope"), ErrNotFound},
		{"file", filepath.Join(root, "file.jpg"), ErrNotDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := b.List(tt.path); !errors.Is(err, tt.want) {
				t.Errorf("List error = %v, want %v", err, tt.want)
			}
			if _, err := b.FolderInfo(tt.path); !errors.Is(err, tt.want) {
				t.Errorf("FolderInfo error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFolderType(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{"empty", nil, TypeFolder},
		{"only other files", []string{"a.txt", "b.pdf"}, TypeFolder},
		{"images win", []string{"a.jpg", "b.png", "c.mp4"}, TypeImages},
		{"videos win", []string{"a.mp4", "b.webm", "c.mp3"}, TypeVideos},
		{"audio wins", []string{"a.mp3", "b.wav"}, TypeAudio},
		{"tie is mixed", []string{"a.jpg", "b.mp4"}, TypeMixed},
		{"three way tie", []string{"a.jpg", "b.mp4", "c.ogg"}, TypeMixed},
		{"upper case extension", []string{"A.JPG"}, TypeImages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			makeTree(t, dir, tt.files...)
			if got := New().FolderType(dir); got != tt.want {
				t.Errorf("FolderType = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFolderTypeMissingDir(t *testing.T) {
	if got := New().FolderType(filepath.Join(t.TempDir(), "gone")); got != TypeFolder {
		t.Errorf("FolderType = %q, want %q", got, TypeFolder)
	}
}

func TestFindThumbnail(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{"image before video", []string{"a.mp4", "b.jpg"}, "b.jpg"},
		{"first image by name", []string{"z.png", "m.gif"}, "m.gif"},
		{"video when no image", []string{"a.txt", "b.mkv", "c.mp4"}, "b.mkv"},
		{"audio is ignored", []string{"a.mp3"}, ""},
		{"directories are ignored", []string{"cover.jpg/"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			makeTree(t, dir, tt.files...)
			want := ""
			if tt.want != "" {
				want = filepath.Join(dir, tt.want)
			}
			if got := New().FindThumbnail(dir); got != want {
				t.Errorf("FindThumbnail = %q, want %q", got, want)
			}
		})
	}
}

func TestFolderInfo(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root,
		"a.jpg", "b.jpg", "c.mp4",
		"with-media/x.png",
		"audio-only/song.mp3",
		"nested-only/deeper/y.jpg",
		"docs/readme.txt",
	)

	info, err := New().FolderInfo(root)
	if err != nil {
		t.Fatalf("FolderInfo: %v", err)
	}

	if info.Type != TypeImages {
		t.Errorf("Type = %q, want %q", info.Type, TypeImages)
	}
	if info.Tags == nil || len(info.Tags) != 0 {
		t.Errorf("Tags = %#v, want empty non-nil slice", info.Tags)
	}

	var names []string
	for _, sf := range info.Subfolders {
		names = append(names, sf.Name)
	}
	want := []string{"audio-only", "with-media"}
	if len(names) != len(want) {
		t.Fatalf("subfolders = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("subfolders[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if got := info.Subfolders[1].Thumbnail; got != filepath.Join(root, "with-media", "x.png") {
		t.Errorf("with-media thumbnail = %q", got)
	}
	if got := info.Subfolders[0].Thumbnail; got != "" {
		t.Errorf("audio-only thumbnail = %q, want empty", got)
	}
}

func TestSearchSubfolders(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root,
		"Summer 2020/beach.jpg",
		"Summer 2020/summer-extras/clip.mp4",
		"winter/summerhouse/",
		"winter/snow.jpg",
		"misc.summer.jpg",
	)

	results, err := New().SearchSubfolders(context.Background(), root, "SUMMER")
	if err != nil {
		t.Fatalf("SearchSubfolders: %v", err)
	}

	want := []struct {
		path string
		typ  string
	}{
		{filepath.Join(root, "Summer 2020"), TypeImages},
		{filepath.Join(root, "Summer 2020", "summer-extras"), TypeVideos},
		{filepath.Join(root, "winter", "summerhouse"), TypeFolder},
	}
	if len(results) != len(want) {
		t.Fatalf("results = %+v, want %d", results, len(want))
	}
	for i, w := range want {
		if results[i].Path != w.path || results[i].Type != w.typ {
			t.Errorf("results[%d] = %s (%s), want %s (%s)", i, results[i].Path, results[i].Type, w.path, w.typ)
		}
	}
	if results[0].Thumbnail != filepath.Join(root, "Summer 2020", "beach.jpg") {
		t.Errorf("thumbnail = %q", results[0].Thumbnail)
	}
}

func TestSearchSubfoldersNoMatches(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root, "a/b/c/")

	results, err := New().SearchSubfolders(context.Background(), root, "zzz")
	if err != nil {
		t.Fatalf("SearchSubfolders: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("results = %#v, want empty non-nil slice", results)
	}
}

func TestSearchSubfoldersErrors(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root, "file.jpg", "a/")

	if _, err := New().SearchSubfolders(context.Background(), filepath.Join(root, "file.jpg"), "a"); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("file root error = %v, want ErrNotDirectory", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().SearchSubfolders(ctx, root, "a"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled error = %v, want context.Canceled", err)
	}
}

func TestSearchSubfoldersSkipsUnreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := t.TempDir()
	makeTree(t, root, "locked/match-inside/", "match-outside/")
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	results, err := New().SearchSubfolders(context.Background(), root, "match")
	if err != nil {
		t.Fatalf("SearchSubfolders: %v", err)
	}
	if len(results) != 1 || results[0].Name != "match-outside" {
		t.Errorf("results = %+v, want only match-outside", results)
	}
}
