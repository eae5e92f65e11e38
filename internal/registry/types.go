package registry

import "time"

// ProfileSummary is one entry of a search response.
type ProfileSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AuthorEmail string    `json:"authorEmail"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Dist locates a version's tarball.
type Dist struct {
	Tarball string `json:"tarball"`
	Shasum  string `json:"shasum"`
}

// VersionInfo describes one published version.
type VersionInfo struct {
	Dist Dist `json:"dist"`
}

// Packument is the registry metadata document for a profile.
type Packument struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	DistTags    map[string]string      `json:"dist-tags"`
	Versions    map[string]VersionInfo `json:"versions"`
	Time        map[string]string      `json:"time"`
	Readme      string                 `json:"readme"`
}

// Latest returns the "latest" dist-tag, or "".
func (p *Packument) Latest() string {
	if p == nil {
		return ""
	}
	return p.DistTags["latest"]
}

// UploadRequest is the multipart body of a publish.
type UploadRequest struct {
	Archive     []byte
	Version     string
	Description string
}

// UploadResult is the registry's response to a publish.
type UploadResult struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Description string    `json:"description,omitempty"`
	TarballSha  string    `json:"tarballSha"`
	CreatedAt   time.Time `json:"createdAt"`
}
