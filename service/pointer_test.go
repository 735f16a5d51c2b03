package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueOr(t *testing.T) {
	x := 42
	assert.Equal(t, 42, ValueOr(&x, 7))
}

func TestValueOr_Nil(t *testing.T) {
	assert.Equal(t, 7, ValueOr[int](nil, 7))
	assert.Equal(t, "fallback", ValueOr[string](nil, "fallback"))
}
