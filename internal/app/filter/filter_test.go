package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BuiltinsRegistered(t *testing.T) {
	registered := GetRegistered()
	for _, name := range []string{"allowed_types_filter", "max_size_filter"} {
		factory, ok := registered[name]
		require.True(t, ok, "filter %s not registered", name)
		f := factory()
		assert.Equal(t, name, f.Name())
		assert.NotEmpty(t, f.Description())
		assert.NotEmpty(t, f.ReturnCodes())
	}
}

func TestChain_StopsAtFirstRejection(t *testing.T) {
	sizeFilter := NewMaxSizeFilter()
	require.NoError(t, sizeFilter.ValidateConfig(map[string]any{"max_megabytes": 1}))
	typeFilter := NewAllowedTypesFilter()
	require.NoError(t, typeFilter.ValidateConfig(map[string]any{"types": []string{"audio/mpeg"}}))

	chain := NewChain()
	chain.Add(sizeFilter)
	chain.Add(typeFilter)
	assert.Len(t, chain.Filters(), 2)

	tests := []struct {
		name     string
		cand     Candidate
		accepted bool
		code     string
	}{
		{
			name:     "accepted",
			cand:     Candidate{Name: "a.mp3", Size: 1024, MIMEType: "audio/mpeg"},
			accepted: true,
		},
		{
			name:     "size rejection wins over type",
			cand:     Candidate{Name: "a.iso", Size: 10 << 20, MIMEType: "application/iso"},
			accepted: false,
			code:     "file_too_large",
		},
		{
			name:     "type rejection",
			cand:     Candidate{Name: "a.txt", Size: 10, MIMEType: "text/plain"},
			accepted: false,
			code:     "unsupported_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := chain.Execute(tt.cand)
			assert.Equal(t, tt.accepted, result.Accepted)
			assert.Equal(t, tt.code, result.Code)
		})
	}
}

func TestAllowedTypesFilter_Check(t *testing.T) {
	f := NewAllowedTypesFilter()
	require.NoError(t, f.ValidateConfig(map[string]any{"types": []string{"audio/mpeg", "audio/ogg"}}))

	tests := []struct {
		name     string
		mime     string
		accepted bool
	}{
		{name: "exact match", mime: "audio/mpeg", accepted: true},
		{name: "case insensitive", mime: "Audio/MPEG", accepted: true},
		{name: "parameters stripped", mime: "audio/ogg; codecs=opus", accepted: true},
		{name: "not in list", mime: "video/mp4", accepted: false},
		{name: "empty", mime: "", accepted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.Check(Candidate{Name: "f", Size: 1, MIMEType: tt.mime})
			assert.Equal(t, tt.accepted, result.Accepted)
		})
	}
}

func TestAllowedTypesFilter_DefaultConfig(t *testing.T) {
	f := NewAllowedTypesFilter()
	require.NoError(t, f.ValidateConfig(map[string]any{}))

	assert.True(t, f.Check(Candidate{Size: 1, MIMEType: "audio/mpeg"}).Accepted)
	assert.False(t, f.Check(Candidate{Size: 1, MIMEType: "application/pdf"}).Accepted)
}

func TestAllowedTypesFilter_Unconfigured(t *testing.T) {
	f := NewAllowedTypesFilter()
	assert.True(t, f.Check(Candidate{Size: 1, MIMEType: "anything"}).Accepted)
}

func TestMaxSizeFilter_Check(t *testing.T) {
	f := NewMaxSizeFilter()
	require.NoError(t, f.ValidateConfig(map[string]any{"max_megabytes": 2}))

	tests := []struct {
		name     string
		size     int64
		accepted bool
		code     string
	}{
		{name: "under limit", size: 1 << 20, accepted: true},
		{name: "at limit", size: 2 << 20, accepted: true},
		{name: "over limit", size: (2 << 20) + 1, accepted: false, code: "file_too_large"},
		{name: "empty file", size: 0, accepted: false, code: "empty_file"},
		{name: "negative size", size: -1, accepted: false, code: "empty_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.Check(Candidate{Name: "f", Size: tt.size, MIMEType: "audio/mpeg"})
			assert.Equal(t, tt.accepted, result.Accepted)
			assert.Equal(t, tt.code, result.Code)
		})
	}
}

func TestMaxSizeFilter_ZeroMeansNoLimit(t *testing.T) {
	f := NewMaxSizeFilter()
	require.NoError(t, f.ValidateConfig(map[string]any{"max_megabytes": 0}))
	assert.True(t, f.Check(Candidate{Size: 1 << 40, MIMEType: "audio/mpeg"}).Accepted)
}

func TestMaxSizeFilter_ValidateConfig_Invalid(t *testing.T) {
	f := NewMaxSizeFilter()
	assert.Error(t, f.ValidateConfig(map[string]any{"max_megabytes": -1}))
	assert.Error(t, f.ValidateConfig(map[string]any{"max_megabytes": "not-a-number"}))
}
