package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttachment_HasThumbnail(t *testing.T) {
	empty := ""
	key := "thumbs/1"

	assert.False(t, (&Attachment{}).HasThumbnail())
	assert.False(t, (&Attachment{ThumbnailKey: &empty}).HasThumbnail())
	assert.True(t, (&Attachment{ThumbnailKey: &key}).HasThumbnail())
}
