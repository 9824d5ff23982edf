package cloudinary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCardImageURL(t *testing.T) {
	assert.Equal(t,
		"https://res.cloudinary.com/demo/image/upload/q_auto,f_auto,w_800,c_limit/scratch-cards/waec-001",
		BuildCardImageURL("demo", "scratch-cards/waec-001", 0))
	assert.Equal(t,
		"https://res.cloudinary.com/demo/image/upload/q_auto,f_auto,w_320,c_limit/x",
		BuildCardImageURL("demo", "x", 320))
}
