package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompanyKey(t *testing.T) {
	assert.Equal(t, "ACME SPA", CompanyKey("  acme \t  spa "))
	assert.Equal(t, "ACME", CompanyKey("ACME"))
	assert.Equal(t, "", CompanyKey("   "))
}
