package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignRequestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		req     AssignRequest
		wantErr string
	}{
		{name: "valid", req: AssignRequest{EmpCodes: []string{"E001", " E002 "}}},
		{name: "missing codes", req: AssignRequest{}, wantErr: "empCodes is required"},
		{name: "empty codes", req: AssignRequest{EmpCodes: []string{}}, wantErr: "empCodes must contain at least 1 item(s)"},
		{name: "blank code", req: AssignRequest{EmpCodes: []string{"E001", "   "}}, wantErr: "empCodes[1] is required"},
		{name: "code too long", req: AssignRequest{EmpCodes: []string{strings.Repeat("x", 65)}}, wantErr: "empCodes[0] must be at most 64 characters"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.wantErr, ValidationMessage(err))
		})
	}
}

func TestRevokeRequestValidate(t *testing.T) {
	req := RevokeRequest{EmpCodes: []string{" E001"}}
	require.NoError(t, req.Validate())
	assert.Equal(t, []string{"E001"}, req.EmpCodes)

	long := strings.Repeat("r", 1025)
	req = RevokeRequest{EmpCodes: []string{"E001"}, Reason: &long}
	err := req.Validate()
	require.Error(t, err)
	assert.Equal(t, "reason must be at most 1024 characters", ValidationMessage(err))
}

func TestNormalizeEmpCodes(t *testing.T) {
	assert.Equal(t, []string{"E002", "E001"}, NormalizeEmpCodes([]string{" E002", "E001", "", "E002 ", "E001"}))
	assert.Empty(t, NormalizeEmpCodes(nil))
}

func TestValidationMessagePassesOtherErrors(t *testing.T) {
	assert.Equal(t, "boom", ValidationMessage(errors.New("boom")))
}

func TestParseRiskLevel(t *testing.T) {
	level, ok := ParseRiskLevel("Medium")
	assert.True(t, ok)
	assert.Equal(t, RiskMedium, level)

	_, ok = ParseRiskLevel("medium")
	assert.False(t, ok)
}
