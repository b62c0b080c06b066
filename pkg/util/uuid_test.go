package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jpfielding/libjpeg.go/pkg/util"
)

func TestMd5ThenHex(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", util.Md5ThenHex(nil))
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", util.Md5ThenHex([]byte("abc")))
}

func TestFingerprintStable(t *testing.T) {
	a := util.Fingerprint([]byte("stream one"))
	b := util.Fingerprint([]byte("stream one"))
	c := util.Fingerprint([]byte("stream two"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 36)
}

func TestHashUUIDStable(t *testing.T) {
	type record struct {
		Name string
		N    int
	}
	a := util.HashUUID(record{Name: "x", N: 1})
	b := util.HashUUID(record{Name: "x", N: 1})
	c := util.HashUUID(record{Name: "x", N: 2})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
