package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	owner := uuid.New()

	key, err := ObjectKey(UploadComplaintImage, owner, "Fatura.JPG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "complaints/"+owner.String()+"/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.True(t, OwnsKey(UploadComplaintImage, owner, key))
	assert.False(t, OwnsKey(UploadComplaintImage, uuid.New(), key))
	assert.False(t, OwnsKey(UploadAvatar, owner, key))
	assert.Equal(t, UploadComplaintImage, TypeOf(key))

	_, err = ObjectKey("banner", owner, "x.png")
	assert.ErrorIs(t, err, ErrUnknownUploadType)
}

func TestOwnsKey_RejectsTraversal(t *testing.T) {
	owner := uuid.New()
	assert.False(t, OwnsKey(UploadAvatar, owner, "avatars/"+owner.String()+"/../other/x.png"))
}

func TestRule(t *testing.T) {
	r, ok := RuleFor(UploadCompanyLogo)
	require.True(t, ok)
	assert.True(t, r.Allows("image/svg+xml"))
	assert.False(t, r.Allows("application/pdf"))

	_, ok = RuleFor("document")
	assert.False(t, ok)
}
