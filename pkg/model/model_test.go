package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCfg_Validate(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		require.NoError(t, LoadCfg{VMin: 200, VMax: 250}.Validate())
	})
	t.Run("vmax_not_greater_than_vmin", func(t *testing.T) {
		require.Error(t, LoadCfg{VMin: 250, VMax: 200}.Validate())
		require.Error(t, LoadCfg{VMin: 200, VMax: 200}.Validate())
	})
	t.Run("disabled_bounds_skip_check", func(t *testing.T) {
		require.NoError(t, LoadCfg{VMin: -1, VMax: 10}.Validate())
		require.NoError(t, LoadCfg{VMin: 10, VMax: -1}.Validate())
		require.NoError(t, LoadCfg{VMin: -1, VMax: -1}.Validate())
	})
}

func TestDefaultSysCfg(t *testing.T) {
	cfg := DefaultSysCfg()
	assert.Equal(t, 5.0, cfg.IMax)
	for i, l := range cfg.Load {
		assert.Equal(t, int16(200), l.VMin)
		assert.Equal(t, int16(250), l.VMax)
		assert.True(t, l.AutoRec)
		assert.Equal(t, uint8(i), l.Priority)
		require.NoError(t, l.Validate())
	}
}

func TestPriorityIndex(t *testing.T) {
	t.Run("identity_when_priorities_match_ids", func(t *testing.T) {
		cfg := DefaultSysCfg()
		idx := PriorityIndex(cfg)
		assert.Equal(t, [NumLoads]uint8{0, 1, 2, 3}, idx)
	})
	t.Run("reorders_by_priority_ascending", func(t *testing.T) {
		cfg := DefaultSysCfg()
		cfg.Load[0].Priority = 3
		cfg.Load[1].Priority = 2
		cfg.Load[2].Priority = 1
		cfg.Load[3].Priority = 0
		idx := PriorityIndex(cfg)
		assert.Equal(t, [NumLoads]uint8{3, 2, 1, 0}, idx)
	})
	t.Run("ties_broken_by_id_ascending", func(t *testing.T) {
		cfg := DefaultSysCfg()
		for i := range cfg.Load {
			cfg.Load[i].Priority = 0
		}
		idx := PriorityIndex(cfg)
		assert.Equal(t, [NumLoads]uint8{0, 1, 2, 3}, idx)
	})
}
