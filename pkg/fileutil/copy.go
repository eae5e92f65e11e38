package fileutil

import (
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/tilework-tech/nori-profiles/internal/errors"
)

// TransformFunc rewrites file content during a copy. rel is the slash-separated
// path relative to the copy root. Returning data unchanged is allowed.
type TransformFunc func(rel string, data []byte) []byte

// CopyFS copies the tree rooted at root in fsys into dst, overwriting files
// that already exist and creating directories as needed. Files present in
// dst but not in fsys are left alone. It returns the slash-separated paths
// of the files written, relative to dst, in walk order.
//
// A missing root is not an error; nothing is copied.
func CopyFS(fsys fs.FS, root, dst string, transform TransformFunc) ([]string, error) {
	if _, err := fs.Stat(fsys, root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "stat %s", root)
	}

	var written []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := relSlash(root, p)
		target := filepath.Join(dst, filepath.FromSlash(rel))

		if d.IsDir() {
			return errors.Wrapf(os.MkdirAll(target, 0o755), "creating directory %s", target)
		}
		if !d.Type().IsRegular() {
			// Symlinks and devices are never part of a profile.
			return nil
		}

		if err := copyFSFile(fsys, p, target, rel, transform); err != nil {
			return err
		}
		written = append(written, rel)
		return nil
	})
	if err != nil {
		return written, errors.Wrapf(err, "copying %s", root)
	}
	return written, nil
}

// CopyDir copies the directory tree src into dst. See CopyFS.
func CopyDir(src, dst string, transform TransformFunc) ([]string, error) {
	return CopyFS(os.DirFS(src), ".", dst, transform)
}

func copyFSFile(fsys fs.FS, src, dst, rel string, transform TransformFunc) error {
	mode := fs.FileMode(0o644)
	if info, err := fs.Stat(fsys, src); err == nil && info.Mode().Perm()&0o111 != 0 {
		mode = 0o755
	}

	if transform != nil {
		data, err := fs.ReadFile(fsys, src)
		if err != nil {
			return errors.Wrapf(err, "reading %s", src)
		}
		return writeFile(dst, transform(rel, data), mode)
	}

	in, err := fsys.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening source file %s", src)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "creating parent directory")
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return errors.Wrapf(err, "creating destination file %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "copying content to %s", dst)
	}
	return errors.Wrapf(out.Close(), "closing %s", dst)
}

func writeFile(dst string, data []byte, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "creating parent directory")
	}
	return errors.Wrapf(os.WriteFile(dst, data, mode), "writing %s", dst)
}

func relSlash(root, p string) string {
	if root == "." {
		return p
	}
	if p == root {
		return "."
	}
	return path.Clean(p[len(root)+1:])
}
