package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCacheKey(t *testing.T) {
	assert.Equal(t,
		"personaquiz:scoring:result:ans-1",
		GenerateCacheKey("scoring", "result", "ans-1"))
}

func TestGenerateCacheKey_WithParams(t *testing.T) {
	assert.Equal(t,
		"personaquiz:quiz:list:hot:page1_size20",
		GenerateCacheKey("quiz", "list", "hot", "page1", "size20"))
}
