package registry

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha1" //nolint:gosec // registry shasums are sha1
	"encoding/hex"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/profile"
	"github.com/tilework-tech/nori-profiles/pkg/fileutil"
)

// MaxExtractedSize caps the total bytes written while unpacking a tarball.
const MaxExtractedSize = 4 * MaxTarballSize

var (
	// ErrProfileExists is returned when the download target is already installed.
	ErrProfileExists = errors.New("profile already installed")

	// ErrNoVersion is returned when a packument has no usable version.
	ErrNoVersion = errors.New("no version to download")

	// ErrChecksum is returned when a tarball does not match its shasum.
	ErrChecksum = errors.New("tarball checksum mismatch")

	// ErrInvalidArchive is returned for tarballs that cannot be installed.
	ErrInvalidArchive = errors.New("invalid profile archive")
)

// ParseSpec splits "name" or "name@version".
func ParseSpec(spec string) (name, version string, err error) {
	name = spec
	if i := strings.LastIndex(spec, "@"); i >= 0 {
		name, version = spec[:i], spec[i+1:]
		if version == "" {
			return "", "", errors.Newf("missing version after @ in %q", spec)
		}
		if _, err := semver.StrictNewVersion(version); err != nil {
			return "", "", errors.Wrapf(err, "invalid version %q", version)
		}
	}
	if err := profile.ValidateName(name); err != nil {
		return "", "", err
	}
	return name, version, nil
}

// DownloadRequest describes one registry-download.
type DownloadRequest struct {
	Name        string
	Version     string
	RegistryURL string
	Config      *diskconfig.Config

	// ProfilesDir is where the profile is unpacked as ProfilesDir/Name.
	ProfilesDir string

	// Instructions is the agent's instructions file basename.
	Instructions string
}

// DownloadResult describes an installed download.
type DownloadResult struct {
	Name        string
	Version     string
	RegistryURL string
	Dir         string
}

// Download resolves req.Name across registries and unpacks it into the
// profiles directory. Nothing is left behind on failure.
func (r *Resolver) Download(ctx context.Context, req DownloadRequest) (*DownloadResult, error) {
	if err := profile.ValidateName(req.Name); err != nil {
		return nil, err
	}

	dest := filepath.Join(req.ProfilesDir, req.Name)
	if _, err := os.Lstat(dest); err == nil {
		return nil, errors.NewUserError(
			errors.Wrapf(ErrProfileExists, "%s", dest),
			"Remove the existing profile directory first, or pick it with: nori switch-profile "+req.Name,
		)
	}

	res, err := r.Resolve(ctx, req.Name, req.RegistryURL, req.Config)
	if err != nil {
		return nil, err
	}

	version, err := pickVersion(res.Packument, req.Version)
	if err != nil {
		return nil, errors.Wrapf(err, "profile %q", req.Name)
	}

	data, err := r.API.Tarball(ctx, res.RegistryURL, req.Name, version, res.Token)
	if err != nil {
		return nil, errors.Wrapf(err, "downloading %s@%s", req.Name, version)
	}
	if sum := res.Packument.Versions[version].Dist.Shasum; sum != "" {
		if err := verifyShasum(data, sum); err != nil {
			return nil, errors.Wrapf(err, "%s@%s", req.Name, version)
		}
	}

	if err := Extract(data, dest); err != nil {
		_ = os.RemoveAll(dest)
		return nil, errors.Wrapf(err, "extracting %s@%s", req.Name, version)
	}
	if !profile.IsValidProfileDir(dest, req.Instructions) {
		_ = os.RemoveAll(dest)
		return nil, errors.Wrapf(ErrInvalidArchive, "%s@%s has no %s", req.Name, version, req.Instructions)
	}

	r.log().Info("downloaded profile", "profile", req.Name, "version", version, "registry", res.RegistryURL)
	return &DownloadResult{Name: req.Name, Version: version, RegistryURL: res.RegistryURL, Dir: dest}, nil
}

// pickVersion returns want when set, else the latest dist-tag.
func pickVersion(p *Packument, want string) (string, error) {
	v := want
	if v == "" {
		v = p.Latest()
		if v == "" {
			return "", errors.Wrap(ErrNoVersion, "registry reports no latest version")
		}
	}
	if _, err := semver.NewVersion(v); err != nil {
		return "", errors.Wrapf(ErrNoVersion, "invalid version %q", v)
	}
	if len(p.Versions) > 0 {
		if _, ok := p.Versions[v]; !ok {
			return "", errors.Wrapf(errors.ErrNotFound, "version %s", v)
		}
	}
	return v, nil
}

func verifyShasum(data []byte, want string) error {
	sum := sha1.Sum(data) //nolint:gosec
	if got := hex.EncodeToString(sum[:]); !strings.EqualFold(got, want) {
		return errors.WithDetailf(ErrChecksum, "expected %s, got %s", want, got)
	}
	return nil
}

// IsGzip reports whether data starts with the gzip magic bytes.
func IsGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

// Extract unpacks a tar or gzipped tar archive into dest. A leading
// "package/" directory is stripped. Entries escaping dest fail the whole
// extraction; links and devices are ignored.
func Extract(data []byte, dest string) error {
	var rd io.Reader = bytes.NewReader(data)
	if IsGzip(data) {
		gz, err := gzip.NewReader(rd)
		if err != nil {
			return errors.Wrap(ErrInvalidArchive, err.Error())
		}
		defer gz.Close()
		rd = gz
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return errors.Wrap(err, "creating profile directory")
	}

	tr := tar.NewReader(rd)
	var written int64
	files := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errors.Wrap(ErrInvalidArchive, err.Error())
		}

		name := entryName(hdr.Name)
		if name == "" {
			continue
		}
		target, ok := fileutil.SafeJoin(dest, name)
		if !ok {
			return errors.Wrapf(ErrInvalidArchive, "entry %q escapes the profile directory", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "creating %s", name)
			}
		case tar.TypeReg:
			if hdr.Size < 0 || written+hdr.Size > MaxExtractedSize {
				return errors.Wrapf(ErrInvalidArchive, "archive expands beyond %d bytes", int64(MaxExtractedSize))
			}
			if err := writeEntry(target, tr, hdr); err != nil {
				return errors.Wrapf(err, "writing %s", name)
			}
			written += hdr.Size
			files++
		}
	}

	if files == 0 {
		return errors.Wrap(ErrInvalidArchive, "archive contains no files")
	}
	return nil
}

func entryName(raw string) string {
	name := path.Clean(strings.TrimPrefix(raw, "./"))
	if name == "package" {
		return ""
	}
	name = strings.TrimPrefix(name, "package/")
	if name == "." {
		return ""
	}
	return name
}

func writeEntry(target string, r io.Reader, hdr *tar.Header) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if hdr.Mode&0o111 != 0 {
		mode = 0o755
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.CopyN(f, r, hdr.Size); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
