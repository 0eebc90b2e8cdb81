package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvince(t *testing.T) {
	t.Run("accepts codes and names in any case", func(t *testing.T) {
		for _, in := range []string{"ON", "on", " Ontario ", "ONTARIO"} {
			p, err := ParseProvince(in)
			require.NoError(t, err, in)
			assert.Equal(t, ProvinceOntario, p)
		}
	})

	t.Run("rejects territories", func(t *testing.T) {
		for _, in := range []string{"YT", "Yukon", "NT", "Northwest Territories", "NU", "Nunavut"} {
			_, err := ParseProvince(in)
			assert.Error(t, err, in)
		}
	})

	t.Run("lists exactly ten provinces with names", func(t *testing.T) {
		require.Len(t, Provinces, 10)
		for _, p := range Provinces {
			assert.NotEmpty(t, p.Name(), p)
		}
	})
}
