package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage(t *testing.T) {
	m := NewMemoryObjectStorage()
	ctx := context.Background()

	data := []byte("assinatura")
	require.NoError(t, m.Put(ctx, "orgs/x/sig.png", data, "image/png"))
	data[0] = 'X'

	got, contentType, err := m.Get(ctx, "orgs/x/sig.png", 0)
	require.NoError(t, err)
	assert.Equal(t, "assinatura", string(got))
	assert.Equal(t, "image/png", contentType)

	_, _, err = m.Get(ctx, "orgs/x/sig.png", 3)
	assert.ErrorContains(t, err, "exceeds")

	u, _, err := m.PresignDownload(ctx, "orgs/x/sig.png")
	require.NoError(t, err)
	assert.Contains(t, u, "/orgs/x/sig.png?")

	require.NoError(t, m.Delete(ctx, "orgs/x/sig.png"))
	ok, err := m.Exists(ctx, "orgs/x/sig.png")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = m.Get(ctx, "orgs/x/sig.png", 0)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestKeys(t *testing.T) {
	org, insp, media := uuid.New(), uuid.New(), uuid.New()

	key := MediaKey(org, insp, media, "Fotografia Extintor.JPG")
	assert.Equal(t, "orgs/"+org.String()+"/inspections/"+insp.String()+"/media/"+media.String()+"-Fotografia_Extintor.JPG", key)
	assert.True(t, KeyBelongsTo(key, org))
	assert.False(t, KeyBelongsTo(key, uuid.New()))
	assert.False(t, KeyBelongsTo("orgs/"+org.String()+"/../other", org))

	sig := SignatureKey(org, insp, "inspector", ".png")
	assert.Contains(t, sig, "/signatures/inspector-")
	assert.Contains(t, AudioKey(org, insp, "reunião.webm"), "-reuniao.webm")
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"relatório técnico.pdf", "relatorio_tecnico.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\fotos\área 1.png`, "area_1.png"},
		{"...", "file"},
		{"<>|", "file"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFileName(tt.in), tt.in)
	}
}
