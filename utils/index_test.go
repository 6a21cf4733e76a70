package utils

import (
	"testing"

	"alumni_events/constants"

	"github.com/stretchr/testify/assert"
)

func TestIsValidValueOfConstant(t *testing.T) {
	assert.True(t, IsValidValueOfConstant("REGULAR", constants.TICKET_TYPES))
	assert.True(t, IsValidValueOfConstant("VIP", constants.TICKET_TYPES))
	assert.False(t, IsValidValueOfConstant("vip", constants.TICKET_TYPES))
	assert.False(t, IsValidValueOfConstant("", constants.TICKET_TYPES))
}
