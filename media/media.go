// Package media turns uploaded files and pasted links into the mediaUrl
// stored on a post. Uploads become inline base64 data URLs.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"

	"github.com/cppla/liveplus/models"
)

var ErrUnsupported = errors.New("media: unsupported content")

const dataPrefix = "data:"

// FromRemoteURL validates a pasted link. http(s) and data URLs are kept verbatim.
func FromRemoteURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty url", ErrUnsupported)
	}
	if strings.HasPrefix(s, dataPrefix) {
		if _, _, err := ParseDataURL(s); err != nil {
			return "", err
		}
		return s, nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an http(s) url", ErrUnsupported, s)
	}
	return s, nil
}

// FromUpload sniffs the payload and encodes it as a data URL. The detected
// type must belong to the declared media type.
func FromUpload(data []byte, declared models.MediaType) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnsupported)
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", fmt.Errorf("%w: unrecognized file type", ErrUnsupported)
	}
	if got := TypeOf(kind.MIME); got != declared {
		return "", fmt.Errorf("%w: file is %s, expected %s", ErrUnsupported, kind.MIME.Value, declared)
	}
	return dataPrefix + kind.MIME.Value + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// TypeOf maps a sniffed MIME type to a post media type, MediaNone when unsupported.
func TypeOf(m types.MIME) models.MediaType {
	switch {
	case m.Value == "application/pdf":
		return models.MediaPDF
	case m.Type == "image":
		return models.MediaImage
	case m.Type == "video":
		return models.MediaVideo
	case m.Type == "audio":
		return models.MediaAudio
	}
	return models.MediaNone
}

// ParseDataURL splits a base64 data URL into its MIME type and payload.
func ParseDataURL(s string) (string, []byte, error) {
	if !strings.HasPrefix(s, dataPrefix) {
		return "", nil, fmt.Errorf("%w: not a data url", ErrUnsupported)
	}
	meta, payload, ok := strings.Cut(s[len(dataPrefix):], ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: malformed data url", ErrUnsupported)
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: data url must be base64", ErrUnsupported)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return mime, data, nil
}
