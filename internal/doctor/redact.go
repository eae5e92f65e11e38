package doctor

import (
	"net/url"

	"github.com/tilework-tech/nori-profiles/internal/logging"
)

// MaskURL redacts the password of a URL with embedded credentials.
// If the URL cannot be parsed, it is returned unchanged.
func MaskURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.User == nil {
		return rawURL
	}
	password, ok := parsed.User.Password()
	if !ok || password == "" {
		return rawURL
	}
	parsed.User = url.UserPassword(parsed.User.Username(), logging.MaskValue(password))
	return parsed.String()
}

// MaskDetails returns a copy of details with sensitive string values masked
// and URL credentials redacted.
func MaskDetails(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	out := make(map[string]any, len(details))
	for k, v := range details {
		s, ok := v.(string)
		switch {
		case !ok:
			out[k] = v
		case logging.ShouldMask(k):
			out[k] = logging.MaskValue(s)
		default:
			out[k] = MaskURL(s)
		}
	}
	return out
}
