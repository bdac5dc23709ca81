package chatclient

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAttachmentRejected marks an attachment that failed validation. It is
// reported synchronously at the composer and never reaches the network.
var ErrAttachmentRejected = errors.New("attachment rejected")

// DefaultMaxAttachmentSize matches the platform's upload limit.
const DefaultMaxAttachmentSize = 5 * 1024 * 1024

// Attachment describes a file already accepted by the upload pipeline.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// AttachmentPolicy is the allow-list an attachment must pass before it may
// ride on a pending message. Entries ending in "/*" match a whole media
// family.
type AttachmentPolicy struct {
	AllowedTypes []string
	MaxSize      int64
}

func DefaultAttachmentPolicy() AttachmentPolicy {
	return AttachmentPolicy{
		AllowedTypes: []string{
			"image/*",
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
		MaxSize: DefaultMaxAttachmentSize,
	}
}

func (p AttachmentPolicy) Validate(att Attachment) error {
	if att.URL == "" || att.Name == "" {
		return fmt.Errorf("%w: missing descriptor fields", ErrAttachmentRejected)
	}

	if att.Size <= 0 {
		return fmt.Errorf("%w: unknown size", ErrAttachmentRejected)
	}
	if att.Size > p.MaxSize {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrAttachmentRejected, att.Size, p.MaxSize)
	}

	for _, allowed := range p.AllowedTypes {
		if family, ok := strings.CutSuffix(allowed, "/*"); ok {
			if strings.HasPrefix(att.Type, family+"/") {
				return nil
			}
			continue
		}
		if att.Type == allowed {
			return nil
		}
	}

	return fmt.Errorf("%w: type %q is not allowed", ErrAttachmentRejected, att.Type)
}
