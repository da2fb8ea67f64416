package pep440_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbtools/wheelhouse/pkg/python/pep440"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		Input     string
		Canonical string
		Err       bool
	}{
		"simple":         {Input: "1.3.1", Canonical: "1.3.1"},
		"v-prefix":       {Input: "v1.4.0", Canonical: "1.4.0"},
		"whitespace":     {Input: "  1.0 ", Canonical: "1.0"},
		"epoch":          {Input: "2!1.0", Canonical: "2!1.0"},
		"pre-rc":         {Input: "1.0rc1", Canonical: "1.0rc1"},
		"pre-alpha-word": {Input: "1.0-alpha.2", Canonical: "1.0a2"},
		"pre-c":          {Input: "1.0c1", Canonical: "1.0rc1"},
		"pre-implicit-0": {Input: "1.0a", Canonical: "1.0a0"},
		"post":           {Input: "1.0.post2", Canonical: "1.0.post2"},
		"post-dash":      {Input: "1.0-2", Canonical: "1.0.post2"},
		"post-rev":       {Input: "1.0.rev3", Canonical: "1.0.post3"},
		"dev":            {Input: "1.0.dev3", Canonical: "1.0.dev3"},
		"local":          {Input: "1.0+ubuntu.1", Canonical: "1.0+ubuntu.1"},
		"local-dashes":   {Input: "1.0+foo-bar", Canonical: "1.0+foo.bar"},
		"kitchen-sink":   {Input: "1!2.0a1.post2.dev3+x.4", Canonical: "1!2.0a1.post2.dev3+x.4"},
		"empty":          {Input: "", Err: true},
		"garbage":        {Input: "hello", Err: true},
		"trailing":       {Input: "1.0.0=", Err: true},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			ver, err := pep440.ParseVersion(tc.Input)
			if tc.Err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Canonical, ver.String())
		})
	}
}

func TestVersionCmp(t *testing.T) {
	t.Parallel()
	// Ascending order per the packaging spec's total ordering.
	ordered := []string{
		"0.9",
		"1.0.dev1",
		"1.0.dev2",
		"1.0a1.dev1",
		"1.0a1",
		"1.0a2",
		"1.0b1",
		"1.0rc1",
		"1.0",
		"1.0+local",
		"1.0.post1.dev1",
		"1.0.post1",
		"1.1",
		"1.1.1",
		"2!0.1",
	}
	vers := make([]*pep440.Version, len(ordered))
	for i, s := range ordered {
		ver, err := pep440.ParseVersion(s)
		require.NoError(t, err, s)
		vers[i] = ver
	}
	for i := range vers {
		for j := range vers {
			switch {
			case i < j:
				assert.Less(t, vers[i].Cmp(*vers[j]), 0, "%q < %q", ordered[i], ordered[j])
			case i > j:
				assert.Greater(t, vers[i].Cmp(*vers[j]), 0, "%q > %q", ordered[i], ordered[j])
			default:
				assert.Zero(t, vers[i].Cmp(*vers[j]), "%q == %q", ordered[i], ordered[j])
			}
		}
	}
}

func TestVersionCmpEquivalent(t *testing.T) {
	t.Parallel()
	testcases := map[string][2]string{
		"trailing-zero": {"1.0", "1.0.0"},
		"v-prefix":      {"v1.3.1", "1.3.1"},
		"pre-spelling":  {"1.0alpha1", "1.0a1"},
		"post-spelling": {"1.0-1", "1.0.post1"},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			a, err := pep440.ParseVersion(tc[0])
			require.NoError(t, err)
			b, err := pep440.ParseVersion(tc[1])
			require.NoError(t, err)
			assert.Zero(t, a.Cmp(*b))
			assert.Zero(t, b.Cmp(*a))
		})
	}
}
