package registry

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/paths"
	"github.com/tilework-tech/nori-profiles/internal/profile"
	"github.com/tilework-tech/nori-profiles/pkg/urlutil"
)

// FirstVersion is published when the registry has no prior version.
const FirstVersion = "1.0.0"

// UploadOptions describes one registry-upload.
type UploadOptions struct {
	Name        string
	Dir         string
	RegistryURL string
	Version     string
	Description string
	Config      *diskconfig.Config

	// Instructions is the agent's instructions file basename.
	Instructions string
}

// Upload packs the profile at opts.Dir and publishes it.
func (r *Resolver) Upload(ctx context.Context, opts UploadOptions) (*UploadResult, error) {
	if err := profile.ValidateName(opts.Name); err != nil {
		return nil, err
	}
	if !profile.IsValidProfileDir(opts.Dir, opts.Instructions) {
		return nil, errors.NewUserError(
			errors.Wrapf(profile.ErrProfileNotFound, "%s is not a profile", opts.Dir),
			fmt.Sprintf("A profile directory must contain %s", opts.Instructions),
		)
	}

	t, err := r.uploadTarget(opts.Name, opts.RegistryURL, opts.Config)
	if err != nil {
		return nil, err
	}
	tok, err := r.token(ctx, t)
	if err != nil {
		return nil, errors.Wrapf(err, "authenticating to %s", t.url)
	}

	version, err := r.nextVersion(ctx, t.url, opts.Name, opts.Version, tok)
	if err != nil {
		return nil, err
	}

	desc := opts.Description
	if desc == "" {
		m, err := profile.ReadManifestDir(opts.Dir)
		if err != nil {
			return nil, err
		}
		desc = m.Description
	}

	archive, err := Pack(opts.Dir)
	if err != nil {
		return nil, err
	}

	res, err := r.API.Upload(ctx, t.url, opts.Name, UploadRequest{
		Archive:     archive,
		Version:     version,
		Description: desc,
	}, tok)
	if err != nil {
		return nil, errors.Wrapf(err, "uploading %s@%s to %s", opts.Name, version, t.url)
	}
	if res.Name == "" {
		res.Name = opts.Name
	}
	if res.Version == "" {
		res.Version = version
	}
	r.log().Info("uploaded profile", "profile", opts.Name, "version", res.Version, "registry", t.url)
	return res, nil
}

// uploadTarget picks the registry: the explicit one, which must have
// credentials, or the only configured private registry.
func (r *Resolver) uploadTarget(name, registryURL string, cfg *diskconfig.Config) (target, error) {
	if registryURL != "" {
		norm, err := urlutil.Normalize(registryURL)
		if err != nil {
			return target{}, errors.NewUserError(err, "Pass a registry URL such as https://registry.example.com")
		}
		var auth *diskconfig.RegistryAuth
		if cfg != nil {
			auth = cfg.RegistryAuthFor(norm)
		}
		if auth == nil {
			return target{}, errors.NewUserError(
				errors.Wrapf(ErrUnauthorized, "no credentials configured for %s", norm),
				"Add a registryAuths entry for this registry to .nori-config.json",
			)
		}
		return target{url: norm, auth: auth}, nil
	}

	private := privateTargets(cfg)
	switch len(private) {
	case 0:
		return target{}, errors.NewUserError(
			errors.Wrap(errors.ErrNotFound, "no private registry configured"),
			"Add a registryAuths entry to .nori-config.json",
		)
	case 1:
		return private[0], nil
	default:
		var b strings.Builder
		b.WriteString("Re-run with an explicit registry:")
		for _, t := range private {
			fmt.Fprintf(&b, "\n  nori registry-upload %s --registry=%s", name, t.url)
		}
		return target{}, errors.NewUserError(
			errors.Wrapf(errors.ErrAmbiguous, "%d private registries are configured", len(private)),
			b.String(),
		)
	}
}

// nextVersion validates want, or bumps the patch of the registry's latest.
func (r *Resolver) nextVersion(ctx context.Context, registryURL, name, want, token string) (string, error) {
	if want != "" {
		v, err := semver.StrictNewVersion(want)
		if err != nil {
			return "", errors.NewUserError(errors.Wrapf(err, "invalid version %q", want), "Use a version such as 1.2.3")
		}
		return v.String(), nil
	}

	p, err := r.API.Packument(ctx, registryURL, name, token)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return FirstVersion, nil
		}
		return "", errors.Wrapf(err, "fetching %s from %s", name, registryURL)
	}
	latest := p.Latest()
	if latest == "" {
		return FirstVersion, nil
	}
	v, err := semver.NewVersion(latest)
	if err != nil {
		return "", errors.Wrapf(err, "registry latest version %q", latest)
	}
	return v.IncPatch().String(), nil
}

// Pack writes the regular files under dir into a gzipped tarball. Entries
// are in lexical order; installer markers are skipped.
func Pack(dir string) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if d.Name() == paths.ManagedMarker {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !d.IsDir() && !info.Mode().IsRegular() {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
		}
		hdr.Uid, hdr.Gid, hdr.Uname, hdr.Gname = 0, 0, "", ""
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		_, err = tw.Write(data)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "packing %s", dir)
	}
	if err := tw.Close(); err != nil {
		return nil, errors.Wrap(err, "closing tar stream")
	}
	if err := gz.Close(); err != nil {
		return nil, errors.Wrap(err, "closing gzip stream")
	}
	if buf.Len() > MaxTarballSize {
		return nil, errors.Newf("profile archive is %d bytes, over the %d byte limit", buf.Len(), MaxTarballSize)
	}
	return buf.Bytes(), nil
}
