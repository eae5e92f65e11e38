package registry

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha1" //nolint:gosec
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/profile"
	"github.com/tilework-tech/nori-profiles/pkg/fileutil"
)

type entry struct {
	name string
	body string
	dir  bool
	link bool
}

func tarball(t *testing.T, compress bool, entries ...entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		switch {
		case e.dir:
			hdr.Typeflag, hdr.Size, hdr.Mode = tar.TypeDir, 0, 0o755
		case e.link:
			hdr.Typeflag, hdr.Size, hdr.Linkname = tar.TypeSymlink, 0, "/etc/passwd"
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Size > 0 {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	if !compress {
		return buf.Bytes()
	}

	var gzbuf bytes.Buffer
	gz := gzip.NewWriter(&gzbuf)
	_, err := gz.Write(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return gzbuf.Bytes()
}

func profileEntries() []entry {
	return []entry{
		{name: "package/", dir: true},
		{name: "package/CLAUDE.md", body: "# Instructions\n"},
		{name: "package/skills/tdd/SKILL.md", body: "---\nname: tdd\ndescription: d\n---\n"},
	}
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		spec    string
		name    string
		version string
		wantErr bool
	}{
		{spec: "senior-swe", name: "senior-swe"},
		{spec: "senior-swe@1.2.3", name: "senior-swe", version: "1.2.3"},
		{spec: "senior-swe@", wantErr: true},
		{spec: "senior-swe@latest", wantErr: true},
		{spec: "Senior", wantErr: true},
		{spec: "_base", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			name, version, err := ParseSpec(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.version, version)
		})
	}
}

func TestExtract_GzipAndPlainMatch(t *testing.T) {
	plain := filepath.Join(t.TempDir(), "plain")
	gzipped := filepath.Join(t.TempDir(), "gz")

	require.False(t, IsGzip(tarball(t, false, profileEntries()...)))
	require.NoError(t, Extract(tarball(t, false, profileEntries()...), plain))
	require.NoError(t, Extract(tarball(t, true, profileEntries()...), gzipped))

	for _, rel := range []string{"CLAUDE.md", "skills/tdd/SKILL.md"} {
		a, err := os.ReadFile(filepath.Join(plain, rel))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(gzipped, rel))
		require.NoError(t, err)
		assert.Equal(t, a, b, rel)
	}
	assert.NoDirExists(t, filepath.Join(plain, "package"))
}

func TestExtract_RejectsTraversal(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "p")
	data := tarball(t, true,
		entry{name: "CLAUDE.md", body: "x"},
		entry{name: "../../evil.md", body: "x"},
	)

	err := Extract(data, dest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArchive))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dest), "evil.md"))
}

func TestExtract_IgnoresLinks(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "p")
	require.NoError(t, Extract(tarball(t, false,
		entry{name: "CLAUDE.md", body: "x"},
		entry{name: "passwd", link: true},
	), dest))
	assert.NoFileExists(t, filepath.Join(dest, "passwd"))
}

func TestExtract_Garbage(t *testing.T) {
	err := Extract([]byte{0x1f, 0x8b, 0, 1, 2}, filepath.Join(t.TempDir(), "p"))
	assert.True(t, errors.Is(err, ErrInvalidArchive))
}

func downloadRequest(t *testing.T) DownloadRequest {
	t.Helper()
	return DownloadRequest{
		Name:         "p",
		ProfilesDir:  t.TempDir(),
		Instructions: "CLAUDE.md",
		Config:       configWith("https://a.example.com"),
	}
}

func TestDownload_LatestFromSingleRegistry(t *testing.T) {
	data := tarball(t, true, profileEntries()...)
	sum := sha1.Sum(data) //nolint:gosec
	pk := packument("p", "1.4.0")
	pk.Versions["1.4.0"] = VersionInfo{Dist: Dist{Shasum: hex.EncodeToString(sum[:])}}

	api := new(mockAPI)
	api.On("Packument", publicURL, "p", "").Return(nil, notFound)
	api.On("Packument", "https://a.example.com", "p", "tok:https://a.example.com").Return(pk, nil)
	api.On("Tarball", "https://a.example.com", "p", "1.4.0", "tok:https://a.example.com").Return(data, nil)

	req := downloadRequest(t)
	res, err := newResolver(api).Download(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "1.4.0", res.Version)
	assert.True(t, profile.IsValidProfileDir(res.Dir, "CLAUDE.md"))
	api.AssertExpectations(t)
}

func TestDownload_ExplicitVersion(t *testing.T) {
	pk := packument("p", "2.0.0")
	pk.Versions["1.0.0"] = VersionInfo{}

	api := new(mockAPI)
	api.On("Packument", "https://a.example.com", "p", mock.Anything).Return(pk, nil)
	api.On("Tarball", "https://a.example.com", "p", "1.0.0", mock.Anything).Return(tarball(t, false, profileEntries()...), nil)

	req := downloadRequest(t)
	req.Version = "1.0.0"
	req.RegistryURL = "https://a.example.com"
	res, err := newResolver(api).Download(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", res.Version)
}

func TestDownload_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, api *mockAPI)
		want  error
	}{
		{
			name: "no latest",
			setup: func(t *testing.T, api *mockAPI) {
				api.On("Packument", mock.Anything, "p", mock.Anything).Return(&Packument{Name: "p"}, nil).Once()
				api.On("Packument", mock.Anything, "p", mock.Anything).Return(nil, notFound)
			},
			want: ErrNoVersion,
		},
		{
			name: "checksum mismatch",
			setup: func(t *testing.T, api *mockAPI) {
				pk := packument("p", "1.0.0")
				pk.Versions["1.0.0"] = VersionInfo{Dist: Dist{Shasum: "deadbeef"}}
				api.On("Packument", publicURL, "p", "").Return(pk, nil)
				api.On("Packument", mock.Anything, "p", mock.Anything).Return(nil, notFound)
				api.On("Tarball", mock.Anything, "p", "1.0.0", mock.Anything).Return([]byte("data"), nil)
			},
			want: ErrChecksum,
		},
		{
			name: "not a profile",
			setup: func(t *testing.T, api *mockAPI) {
				api.On("Packument", publicURL, "p", "").Return(packument("p", "1.0.0"), nil)
				api.On("Packument", mock.Anything, "p", mock.Anything).Return(nil, notFound)
				api.On("Tarball", mock.Anything, "p", "1.0.0", mock.Anything).
					Return(tarball(t, true, entry{name: "README.md", body: "x"}), nil)
			},
			want: ErrInvalidArchive,
		},
		{
			name: "traversal",
			setup: func(t *testing.T, api *mockAPI) {
				api.On("Packument", publicURL, "p", "").Return(packument("p", "1.0.0"), nil)
				api.On("Packument", mock.Anything, "p", mock.Anything).Return(nil, notFound)
				api.On("Tarball", mock.Anything, "p", "1.0.0", mock.Anything).
					Return(tarball(t, true, entry{name: "CLAUDE.md", body: "x"}, entry{name: "../x", body: "x"}), nil)
			},
			want: ErrInvalidArchive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(mockAPI)
			tt.setup(t, api)

			req := downloadRequest(t)
			_, err := newResolver(api).Download(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.NoDirExists(t, filepath.Join(req.ProfilesDir, "p"))
		})
	}
}

func TestDownload_RefusesExistingProfile(t *testing.T) {
	req := downloadRequest(t)
	require.NoError(t, fileutil.AtomicWriteFile(filepath.Join(req.ProfilesDir, "p", "CLAUDE.md"), []byte("mine"), 0o644))

	api := new(mockAPI)
	_, err := newResolver(api).Download(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProfileExists))
	api.AssertNotCalled(t, "Packument", mock.Anything, mock.Anything, mock.Anything)

	data, _ := os.ReadFile(filepath.Join(req.ProfilesDir, "p", "CLAUDE.md"))
	assert.Equal(t, "mine", string(data))
}
