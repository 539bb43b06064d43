// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"testing"

	"github.com/ManuGH/advexp/internal/fraction"
	"github.com/stretchr/testify/assert"
)

func TestEnvName(t *testing.T) {
	assert.Equal(t, "ADVEXP_LR_MIN", EnvName("lr_min"))
	assert.Equal(t, "ADVEXP_HYDRA_RUN_DIR", EnvName("hydra.run.dir"))
}

func TestParseHelpers(t *testing.T) {
	const key = "ADVEXP_TEST_VALUE"

	t.Run("unset uses default", func(t *testing.T) {
		assert.Equal(t, 7, ParseInt(key, 7))
		assert.Equal(t, "x", ParseString(key, "x"))
	})

	t.Run("bool spellings", func(t *testing.T) {
		for in, want := range map[string]bool{"true": true, "1": true, "YES": true, "false": false, "0": false, "no": false} {
			t.Setenv(key, in)
			assert.Equal(t, want, ParseBool(key, !want), in)
		}
		t.Setenv(key, "maybe")
		assert.True(t, ParseBool(key, true))
	})

	t.Run("float", func(t *testing.T) {
		t.Setenv(key, " 0.25 ")
		assert.Equal(t, 0.25, ParseFloat(key, 1))
		t.Setenv(key, "quarter")
		assert.Equal(t, 1.0, ParseFloat(key, 1))
	})

	t.Run("fraction", func(t *testing.T) {
		def := fraction.MustParse("8/255")
		t.Setenv(key, "4 / 255")
		got := ParseFraction(key, def)
		assert.Equal(t, "4 / 255", got.Expr)
		assert.InDelta(t, 4.0/255.0, got.Value, 1e-15)
		t.Setenv(key, "4/0")
		assert.Equal(t, def, ParseFraction(key, def))
	})

	t.Run("whitespace only uses default", func(t *testing.T) {
		t.Setenv(key, "   ")
		assert.Equal(t, "x", ParseString(key, "x"))
	})
}
