package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "1h", want: time.Hour},
		{in: "1h30m", want: 90 * time.Minute},
		{in: "1 hour", want: time.Hour},
		{in: "1 week", want: 7 * 24 * time.Hour},
		{in: "2 days", want: 48 * time.Hour},
		{in: "2.5 hrs", want: 150 * time.Minute},
		{in: "10 Minutes", want: 10 * time.Minute},
		{in: "7d", want: Week},
		{in: "  1 week  ", want: Week},
		{in: "", wantErr: true},
		{in: "hour", wantErr: true},
		{in: "5 fortnights", wantErr: true},
		{in: "1.2.3 h", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	var v struct {
		A Duration `json:"a"`
		B Duration `json:"b"`
		C Duration `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1 week","b":"15m","c":1000000000}`), &v))
	assert.Equal(t, Week, v.A.Duration)
	assert.Equal(t, 15*time.Minute, v.B.Duration)
	assert.Equal(t, time.Second, v.C.Duration)

	require.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
	require.Error(t, json.Unmarshal([]byte(`{"a":"soon"}`), &v))
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{Duration: time.Hour})
	require.NoError(t, err)
	assert.JSONEq(t, `"1h0m0s"`, string(b))
}
