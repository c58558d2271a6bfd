// Package share builds the links offered by a post's share buttons.
package share

import (
	"errors"
	"fmt"
	"strings"
)

type Platform string

const (
	WhatsApp  Platform = "whatsapp"
	Instagram Platform = "instagram"
	Copy      Platform = "copy"
)

var ErrUnknownPlatform = errors.New("share: unknown platform")

const (
	whatsAppBase    = "https://wa.me/?text="
	messagePrefix   = "Confira esta publicação na Live+: "
	instagramNotice = "Link copiado! Compartilhe no seu Instagram."
	copyNotice      = "Link copiado!"
)

// Link is what the client does next: open URL, or copy CopyText and show Notice.
type Link struct {
	Platform Platform `json:"platform"`
	URL      string   `json:"url,omitempty"`
	CopyText string   `json:"copyText,omitempty"`
	Notice   string   `json:"notice,omitempty"`
}

func Build(platform Platform, title, pageURL string) (Link, error) {
	switch platform {
	case WhatsApp:
		msg := messagePrefix + title + " " + pageURL
		return Link{Platform: platform, URL: whatsAppBase + EncodeURIComponent(msg)}, nil
	case Instagram:
		return Link{Platform: platform, CopyText: pageURL, Notice: instagramNotice}, nil
	case Copy:
		return Link{Platform: platform, CopyText: pageURL, Notice: copyNotice}, nil
	}
	return Link{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
}

// EncodeURIComponent percent-encodes every byte outside the unreserved set
// A-Z a-z 0-9 - _ . ! ~ * ' ( ), which is what browsers do for query values.
func EncodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
