package compactindex

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"regexp"
)

var hostSanitizeRe = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// cacheSlugForURL derives the on-disk cache directory name for a
// source URL: the sanitized host, the port (explicit, or the scheme's
// default, or "0"), and the first 8 hex characters of the URL's MD5
// hash, joined with dots.
func cacheSlugForURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing source url %q: %w", rawURL, err)
	}

	host := hostSanitizeRe.ReplaceAllString(u.Hostname(), "-")

	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		case "http":
			port = "80"
		default:
			port = "0"
		}
	}

	sum := md5.Sum([]byte(rawURL))
	hash := hex.EncodeToString(sum[:])[:8]

	return fmt.Sprintf("%s.%s.%s", host, port, hash), nil
}

func readFileIfExists(path string) ([]byte, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return b, true
}

func writeFileAtomic(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}
