package cad

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caddiff/internal/model"
)

func exportFixture() []*Outcome {
	nails := model.Result[model.NailRecord]{
		Shifted: []model.Shift[model.NailRecord]{
			{New: nail("NET8", 0, 0, model.Bottom), Old: nail("NET8", 0.003, 0.004, model.Bottom)},
		},
		Added:     []model.NailRecord{nail("NET1", 1, 1, model.Top)},
		Unchanged: []string{"GND", "VCC"},
	}
	parts := model.Result[model.PartRecord]{
		Shifted: []model.Shift[model.PartRecord]{
			{New: part("U1", 0, 0, 90, model.Top), Old: part("U1", 0, 0, 0, model.Top)},
		},
		Deleted: []model.PartRecord{part("R7", 2, 2, 0, model.Bottom)},
	}
	return []*Outcome{
		{Info: testInfo(Nails), Nails: &nails},
		{Info: testInfo(Parts), Parts: &parts},
	}
}

func TestExport_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatJSON, exportFixture()))

	var doc ExportDoc
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Reports, 2)

	n := doc.Reports[0]
	assert.Equal(t, "nails", n.Kind)
	assert.Equal(t, 2, n.Unchanged)
	require.Len(t, n.Shifted, 1)
	assert.InDelta(t, 5.0, n.Shifted[0].DistanceMil, 1e-9)
	assert.True(t, n.Shifted[0].OverThreshold)
	assert.Nil(t, n.Shifted[0].RotationDelta)
	assert.Equal(t, "B", n.Shifted[0].New.Side)
	assert.Empty(t, n.Deleted)
	require.Len(t, n.Added, 1)
	assert.Nil(t, n.Added[0].Rotation)

	p := doc.Reports[1]
	require.Len(t, p.Shifted, 1)
	require.NotNil(t, p.Shifted[0].RotationDelta)
	assert.Equal(t, 90.0, *p.Shifted[0].RotationDelta)
	require.Len(t, p.Deleted, 1)
	assert.Equal(t, "R7", p.Deleted[0].Key)
	assert.Equal(t, "G", p.Deleted[0].Grid)

	assert.Contains(t, buf.String(), `"side": "B"`)
}

func TestExport_TOML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, "TOML", exportFixture()))

	var doc ExportDoc
	require.NoError(t, toml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Reports, 2)
	assert.Equal(t, "parts", doc.Reports[1].Kind)
	require.Len(t, doc.Reports[1].Deleted, 1)
	assert.Equal(t, "B", doc.Reports[1].Deleted[0].Side)
	require.NotNil(t, doc.Reports[1].Deleted[0].Rotation)
	assert.Equal(t, 0.0, *doc.Reports[1].Deleted[0].Rotation)
}

func TestExport_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Export(&buf, "xml", exportFixture()))
}
