package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func annotatedResource() Resource {
	r := Resource{
		URI:      "res://doc",
		Name:     "doc",
		MimeType: "text/plain",
	}
	r.Annotations = &Annotations{Audience: []Role{RoleUser}, Priority: 0.5}
	return r
}

func TestResourceAnnotationsGatedByVersion(t *testing.T) {
	r := annotatedResource()

	newer, err := r.EncodeMCP(ProtocolVersion20250326)
	require.NoError(t, err)
	require.Contains(t, string(newer), `"annotations"`)

	older, err := r.EncodeMCP(ProtocolVersion20241105)
	require.NoError(t, err)
	require.NotContains(t, string(older), `"annotations"`)

	// Decoding at the older version never leaves annotation state behind,
	// even when the peer sent some anyway.
	var decoded Resource
	require.NoError(t, decoded.DecodeMCP(newer, ProtocolVersion20241105))
	require.Nil(t, decoded.Annotations)
	require.Equal(t, r.URI, decoded.URI)
}

func TestResourceRoundTripPreservesValue(t *testing.T) {
	r := annotatedResource()
	for _, pv := range []ProtocolVersion{ProtocolVersion20241105, ProtocolVersion20250326} {
		raw, err := r.EncodeMCP(pv)
		require.NoError(t, err)
		var decoded Resource
		require.NoError(t, decoded.DecodeMCP(raw, pv))
		if pv.SupportsAnnotations() {
			require.Equal(t, r, decoded)
		} else {
			want := r
			want.Annotations = nil
			require.Equal(t, want, decoded)
		}
	}
}

func TestAudioContentRequiresNewerVersion(t *testing.T) {
	audio := NewAudioContent("UklGRg==", "audio/wav")

	_, err := audio.EncodeMCP(ProtocolVersion20241105)
	require.Error(t, err)

	raw, err := audio.EncodeMCP(ProtocolVersion20250326)
	require.NoError(t, err)

	_, err = DecodeContent(raw, ProtocolVersion20241105)
	require.Error(t, err)

	decoded, err := DecodeContent(raw, ProtocolVersion20250326)
	require.NoError(t, err)
	require.Equal(t, audio, decoded)
}

func TestUnknownVersionDefaultsToLatest(t *testing.T) {
	require.True(t, ProtocolVersion("").SupportsAnnotations())
	require.True(t, ProtocolVersion("2026-01-01").SupportsAudioContent())
}

func TestDecodeContentVariants(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Content
	}{
		{"text", `{"type":"text","text":"hi"}`, NewTextContent("hi")},
		{"image", `{"type":"image","data":"aWNvbg==","mimeType":"image/png"}`, NewImageContent("aWNvbg==", "image/png")},
		{
			"embedded text resource",
			`{"type":"resource","resource":{"uri":"res://a","text":"body"}}`,
			NewEmbeddedResource(TextResourceContents{URI: "res://a", Text: "body"}),
		},
		{
			"embedded blob resource",
			`{"type":"resource","resource":{"uri":"res://b","blob":"AAEC"}}`,
			NewEmbeddedResource(BlobResourceContents{URI: "res://b", Blob: "AAEC"}),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeContent([]byte(tc.in), ProtocolVersion20250326)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	_, err := DecodeContent([]byte(`{"type":"video"}`), ProtocolVersion20250326)
	require.Error(t, err)
}

// An embedded resource with empty text is still the text variant; variant
// selection goes by key presence.
func TestParseResourceContentsEmptyText(t *testing.T) {
	contents, err := ParseResourceContents(map[string]any{"uri": "res://empty", "text": ""})
	require.NoError(t, err)
	require.IsType(t, TextResourceContents{}, contents)
}

func TestDecodeCompletionRef(t *testing.T) {
	ref, err := DecodeCompletionRef(map[string]interface{}{"type": "ref/prompt", "name": "greeting"})
	require.NoError(t, err)
	require.Equal(t, PromptReference{Type: "ref/prompt", Name: "greeting"}, ref)

	ref, err = DecodeCompletionRef(map[string]interface{}{"type": "ref/resource", "uri": "res://a"})
	require.NoError(t, err)
	require.Equal(t, ResourceReference{Type: "ref/resource", URI: "res://a"}, ref)

	_, err = DecodeCompletionRef(map[string]interface{}{"type": "ref/unknown"})
	require.Error(t, err)
}

func TestParseCreateMessageResult(t *testing.T) {
	raw := []byte(`{"role":"assistant","content":{"type":"text","text":"done"},"model":"m1","stopReason":"endTurn"}`)
	result, err := ParseCreateMessageResult(raw, ProtocolVersion20250326)
	require.NoError(t, err)
	require.Equal(t, RoleAssistant, result.Role)
	require.Equal(t, "m1", result.Model)
	require.Equal(t, "endTurn", result.StopReason)
	require.Equal(t, NewTextContent("done"), result.Content)
}

// Results omit optional fields left at their defaults.
func TestCallToolResultMinimalEncoding(t *testing.T) {
	result := CallToolResult{Content: []Content{NewTextContent("ok")}}
	raw, err := result.EncodeMCP(ProtocolVersion20250326)
	require.NoError(t, err)

	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &obj))
	require.Contains(t, obj, "content")
	require.NotContains(t, obj, "isError")
	require.NotContains(t, obj, "_meta")
}

func TestIDAllocatorStrictlyIncreasing(t *testing.T) {
	a := NewIDAllocator()
	prev := a.Next()
	require.EqualValues(t, 0, prev)
	for i := 0; i < 100; i++ {
		next := a.Next()
		require.Greater(t, next, prev)
		prev = next
	}
}
