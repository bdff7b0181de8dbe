package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abgdnv/fridgekeeper/internal/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ReceiptCommand(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		stdin    string
		file     string
		expected string
	}{
		{
			name:     "from stdin",
			args:     []string{"receipt", "--stopword", "합계"},
			stdin:    "두부\n\n우유 1L\n합계 5,000\n",
			expected: "두부\n우유 1L\n",
		},
		{
			name:     "from file",
			args:     []string{"receipt", "--stopword", "TOTAL", "--stopword", "Mart"},
			file:     "Mart\neggs\nTOTAL 9.99\nkimchi\n",
			expected: "eggs\nkimchi\n",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			args := tc.args
			if tc.file != "" {
				path := filepath.Join(t.TempDir(), "receipt.txt")
				require.NoError(t, os.WriteFile(path, []byte(tc.file), 0o600))
				args = append(args, path)
			}
			var out bytes.Buffer
			cmd := newRootCmd()
			cmd.SetArgs(args)
			cmd.SetIn(strings.NewReader(tc.stdin))
			cmd.SetOut(&out)
			// when
			err := cmd.Execute()
			// then
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out.String())
		})
	}
}

func Test_ExpiringCommand_RequiresOwner(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"expiring"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()

	assert.Error(t, err)
}

func Test_ExpiringCommand_InvalidOwner(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"expiring", "--owner", "not-a-uuid"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()

	assert.ErrorContains(t, err, "invalid owner")
}

func Test_printExpiring(t *testing.T) {
	asOf := time.Date(2024, time.February, 18, 0, 0, 0, 0, time.UTC)
	newProduct := func(barcode, name, date string) *inventory.Product {
		p, err := inventory.NewProduct(barcode, name, "", date)
		require.NoError(t, err)
		return p
	}
	used := newProduct("U", "Butter", "20240219")
	used.MarkUsed()
	products := []*inventory.Product{
		newProduct("A", "Milk", "20240220"),
		newProduct("B", "Tofu", "20240401"),
		newProduct("C", "Yogurt", "20240208"),
		used,
	}

	var out bytes.Buffer
	require.NoError(t, printExpiring(&out, products, 7, asOf))
	assert.Equal(t,
		"A\tMilk expires on 2024-02-20 (in 2 days)\n"+
			"C\tYogurt expires on 2024-02-08 (10 days ago)\n",
		out.String())

	out.Reset()
	require.NoError(t, printExpiring(&out, nil, 7, asOf))
	assert.Equal(t, "No products expire within 7 days.\n", out.String())
}

func Test_parsePreferences(t *testing.T) {
	prefs, err := parsePreferences([]string{"diet=vegetarian", " spice = mild "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"diet": "vegetarian", "spice": "mild"}, prefs)

	_, err = parsePreferences([]string{"novalue"})
	assert.Error(t, err)
	_, err = parsePreferences([]string{"=x"})
	assert.Error(t, err)
}

func Test_resolveAsOf(t *testing.T) {
	now := time.Date(2024, time.February, 19, 8, 30, 0, 0, time.FixedZone("KST", 9*60*60))

	today, err := resolveAsOf("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 19, 0, 0, 0, 0, time.UTC), today)

	explicit, err := resolveAsOf("2024-02-01", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), explicit)

	_, err = resolveAsOf("yesterday", now)
	assert.Error(t, err)
}
