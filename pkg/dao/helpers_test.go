package dao

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUuidifyString(t *testing.T) {
	valid := uuid.NewString()
	assert.Equal(t, valid, UuidifyString(valid).String())
	assert.Equal(t, uuid.Nil, UuidifyString("not-a-uuid"))
	assert.Equal(t, uuid.Nil, UuidifyString(""))
}

func TestConvertSortByToSQL(t *testing.T) {
	sortMap := map[string]string{
		"original_filename": "original_filename",
		"size":              "size",
		"uploaded_at":       "created_at",
	}

	assert.Equal(t, "size asc", convertSortByToSQL("size", sortMap, "created_at desc"))
	assert.Equal(t, "size desc", convertSortByToSQL("size:desc", sortMap, "created_at desc"))
	assert.Equal(t, "created_at asc", convertSortByToSQL("uploaded_at:asc", sortMap, "created_at desc"))
	assert.Equal(t, "original_filename asc, size desc", convertSortByToSQL("original_filename,size:desc", sortMap, "created_at desc"))

	// unknown fields fall back to the default ordering
	assert.Equal(t, "created_at desc", convertSortByToSQL("nope", sortMap, "created_at desc"))
	assert.Equal(t, "created_at desc", convertSortByToSQL("", sortMap, "created_at desc"))
}
