package pep440_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbtools/wheelhouse/pkg/python/pep440"
)

func TestParseSpecifier(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		Input     string
		Canonical string
		Err       bool
	}{
		"exact":       {Input: "==1.3.1", Canonical: "==1.3.1"},
		"spaces":      {Input: ">= 1.4 , < 2.0", Canonical: ">=1.4,<2.0"},
		"prefix":      {Input: "==1.4.*", Canonical: "==1.4.*"},
		"neq-prefix":  {Input: "!=1.3.*", Canonical: "!=1.3.*"},
		"compatible":  {Input: "~=1.4.2", Canonical: "~=1.4.2"},
		"empty":       {Input: "", Canonical: ""},
		"no-op":       {Input: "1.3.1", Err: true},
		"lt-prefix":   {Input: "<1.4.*", Err: true},
		"short-tilde": {Input: "~=1", Err: true},
		"bad-version": {Input: "==banana", Err: true},
		"requires-py": {Input: ">=3.10,<4.0", Canonical: ">=3.10,<4.0"},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			spec, err := pep440.ParseSpecifier(tc.Input)
			if tc.Err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Canonical, spec.String())
		})
	}
}

func TestSpecifierMatch(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		Spec    string
		Matches []string
		Misses  []string
	}{
		"exact": {
			Spec:    "==1.3.1",
			Matches: []string{"1.3.1", "v1.3.1"},
			Misses:  []string{"1.4.0", "1.3.1.post1"},
		},
		"prefix": {
			Spec:    "==1.4.*",
			Matches: []string{"1.4.0", "1.4.9", "1.4.0rc1"},
			Misses:  []string{"1.3.1", "1.5.0"},
		},
		"neq-prefix": {
			Spec:    "!=1.3.*",
			Matches: []string{"1.4.0", "2.0"},
			Misses:  []string{"1.3.1", "1.3"},
		},
		"range": {
			Spec:    ">=3.10,<4.0",
			Matches: []string{"3.10", "3.12.1"},
			Misses:  []string{"3.9.18", "4.0"},
		},
		"compatible": {
			Spec:    "~=2.2.3",
			Matches: []string{"2.2.3", "2.2.10"},
			Misses:  []string{"2.2.2", "2.3.0", "3.0"},
		},
		"empty-matches-all": {
			Spec:    "",
			Matches: []string{"0.0.1", "99!1"},
		},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			spec, err := pep440.ParseSpecifier(tc.Spec)
			require.NoError(t, err)
			for _, verStr := range tc.Matches {
				ver, err := pep440.ParseVersion(verStr)
				require.NoError(t, err)
				assert.True(t, spec.Match(*ver), "%q should match %q", verStr, tc.Spec)
			}
			for _, verStr := range tc.Misses {
				ver, err := pep440.ParseVersion(verStr)
				require.NoError(t, err)
				assert.False(t, spec.Match(*ver), "%q should not match %q", verStr, tc.Spec)
			}
		})
	}
}
