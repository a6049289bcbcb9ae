package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	UploadComplaintImage = "complaint_image"
	UploadCompanyLogo    = "company_logo"
	UploadAvatar         = "avatar"
)

var ErrUnknownUploadType = errors.New("unknown upload type")

// Rule bounds what can be uploaded for one upload type.
type Rule struct {
	Prefix       string
	MaxSize      int64
	ContentTypes []string
}

var rules = map[string]Rule{
	UploadComplaintImage: {Prefix: "complaints", MaxSize: 5 * 1024 * 1024, ContentTypes: []string{"image/jpeg", "image/png", "image/webp"}},
	UploadCompanyLogo:    {Prefix: "logos", MaxSize: 2 * 1024 * 1024, ContentTypes: []string{"image/jpeg", "image/png", "image/webp", "image/svg+xml"}},
	UploadAvatar:         {Prefix: "avatars", MaxSize: 2 * 1024 * 1024, ContentTypes: []string{"image/jpeg", "image/png", "image/webp"}},
}

func RuleFor(uploadType string) (Rule, bool) {
	r, ok := rules[uploadType]
	return r, ok
}

func (r Rule) Allows(contentType string) bool {
	for _, t := range r.ContentTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// ObjectKey builds "<prefix>/<owner>/<random><ext>". The owner is the uploading user,
// or the company for logos.
func ObjectKey(uploadType string, ownerID uuid.UUID, filename string) (string, error) {
	r, ok := rules[uploadType]
	if !ok {
		return "", ErrUnknownUploadType
	}
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s/%s%s", r.Prefix, ownerID.String(), uuid.New().String(), ext), nil
}

// OwnsKey reports whether key was issued for ownerID under uploadType.
func OwnsKey(uploadType string, ownerID uuid.UUID, key string) bool {
	r, ok := rules[uploadType]
	if !ok || strings.Contains(key, "..") {
		return false
	}
	return strings.HasPrefix(key, r.Prefix+"/"+ownerID.String()+"/")
}

// TypeOf returns the upload type a key belongs to, or "".
func TypeOf(key string) string {
	prefix, _, _ := strings.Cut(key, "/")
	for name, r := range rules {
		if r.Prefix == prefix {
			return name
		}
	}
	return ""
}
