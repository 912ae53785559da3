package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestValidCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon *float64
		ok       bool
	}{
		{"正常坐标", f(48.85), f(2.35), true},
		{"边界值", f(-90), f(180), true},
		{"纬度越界", f(91), f(2.35), false},
		{"经度越界", f(48.85), f(-181), false},
		{"缺纬度", nil, f(2.35), false},
		{"缺经度", f(48.85), nil, false},
		{"两项都缺", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon := validCoordinates(tt.lat, tt.lon)
			if tt.ok {
				assert.Equal(t, tt.lat, lat)
				assert.Equal(t, tt.lon, lon)
			} else {
				// 半对坐标绝不保留
				assert.Nil(t, lat)
				assert.Nil(t, lon)
			}
		})
	}
}
