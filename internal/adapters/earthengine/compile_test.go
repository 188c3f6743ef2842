package earthengine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/earthimagery/internal/core/domain"
	"github.com/samirrijal/earthimagery/internal/pkg/geospatial"
)

// roundTrip encodes expr and decodes it into generic maps.
func roundTrip(t *testing.T, expr *expression) map[string]any {
	t.Helper()
	data, err := json.Marshal(expr)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func invocation(t *testing.T, node any) (string, map[string]any) {
	t.Helper()
	m, ok := node.(map[string]any)
	require.True(t, ok, "node is not an object: %v", node)
	fi, ok := m["functionInvocationValue"].(map[string]any)
	require.True(t, ok, "node is not an invocation: %v", m)
	args, _ := fi["arguments"].(map[string]any)
	return fi["functionName"].(string), args
}

func constant(t *testing.T, node any) any {
	t.Helper()
	m, ok := node.(map[string]any)
	require.True(t, ok)
	v, ok := m["constantValue"]
	require.True(t, ok, "node is not a constant: %v", m)
	return v
}

func TestValueNode_ConstantJSON(t *testing.T) {
	data, err := json.Marshal(stringConst("COPERNICUS/S2_HARMONIZED"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"constantValue":"COPERNICUS/S2_HARMONIZED"}`, string(data))

	data, err = json.Marshal(stringList([]string{"B4", "B3"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"constantValue":["B4","B3"]}`, string(data))

	data, err = json.Marshal(intValue(2048))
	require.NoError(t, err)
	assert.JSONEq(t, `{"integerValue":"2048"}`, string(data))
}

func TestSizeExpression(t *testing.T) {
	q := domain.CloudFreeQuery(domain.GeoPoint{Lat: 37.8, Lon: -122.4}, domain.YearRange(2020))
	expr, err := sizeExpression(q)
	require.NoError(t, err)

	out := roundTrip(t, expr)
	assert.Equal(t, "0", out["result"])
	values := out["values"].(map[string]any)

	name, a := invocation(t, values["0"])
	assert.Equal(t, "Collection.size", name)

	// Walk the pipeline back to the load, outermost step first.
	name, a = invocation(t, a["collection"])
	assert.Equal(t, "Collection.limit", name)
	assert.Equal(t, domain.CloudPercentProperty, constant(t, a["key"]))
	assert.Equal(t, true, constant(t, a["ascending"]))

	name, a = invocation(t, a["collection"])
	assert.Equal(t, "Collection.map", name)
	def := a["baseAlgorithm"].(map[string]any)["functionDefinitionValue"].(map[string]any)
	assert.Equal(t, []any{mappingVar}, def["argumentNames"])
	body, ok := values[def["body"].(string)]
	require.True(t, ok, "function body must be defined in values")
	bodyName, _ := invocation(t, body)
	assert.Equal(t, "Image.divide", bodyName)

	name, a = invocation(t, a["collection"])
	assert.Equal(t, "Collection.filter", name)
	fname, fargs := invocation(t, a["filter"])
	assert.Equal(t, "Filter.lessThan", fname)
	assert.Equal(t, domain.CloudPercentProperty, constant(t, fargs["leftField"]))
	assert.Equal(t, 20.0, constant(t, fargs["rightValue"]))

	name, a = invocation(t, a["collection"])
	assert.Equal(t, "Collection.filter", name)
	fname, fargs = invocation(t, a["filter"])
	assert.Equal(t, "Filter.dateRangeContains", fname)
	_, rng := invocation(t, fargs["leftValue"])
	_, start := invocation(t, rng["start"])
	_, end := invocation(t, rng["end"])
	assert.Equal(t, "2020-01-01", constant(t, start["value"]))
	assert.Equal(t, "2020-12-31", constant(t, end["value"]))

	name, a = invocation(t, a["collection"])
	assert.Equal(t, "Collection.filter", name)
	fname, fargs = invocation(t, a["filter"])
	assert.Equal(t, "Filter.intersects", fname)
	_, pt := invocation(t, fargs["rightValue"])
	assert.Equal(t, []any{-122.4, 37.8}, constant(t, pt["coordinates"]))

	name, a = invocation(t, a["collection"])
	assert.Equal(t, "ImageCollection.load", name)
	assert.Equal(t, domain.CollectionS2Harmonized, constant(t, a["id"]))
}

func TestSizeExpression_RejectsImage(t *testing.T) {
	q := domain.NewCollectionQuery("c").First()
	_, err := sizeExpression(q)
	assert.Error(t, err)
}

func TestCloudMaskBody(t *testing.T) {
	g := newGraph()
	fn, err := transform(g, domain.TransformCloudMaskS2)
	require.NoError(t, err)

	data, err := json.Marshal(g.values[fn.FunctionDefinitionValue.Body])
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))

	name, a := invocation(t, body)
	assert.Equal(t, "Image.divide", name)
	_, div := invocation(t, a["image2"])
	assert.Equal(t, 10000.0, constant(t, div["value"]))

	name, a = invocation(t, a["image1"])
	assert.Equal(t, "Image.updateMask", name)
	assert.Equal(t, mappingVar, a["image"].(map[string]any)["argumentReference"])

	name, a = invocation(t, a["mask"])
	assert.Equal(t, "Image.and", name)
	for key, bit := range map[string]float64{"image1": 1 << 10, "image2": 1 << 11} {
		eqName, eq := invocation(t, a[key])
		assert.Equal(t, "Image.eq", eqName)
		_, and := invocation(t, eq["image1"])
		_, c := invocation(t, and["image2"])
		assert.Equal(t, bit, constant(t, c["value"]))
		_, qa := invocation(t, and["image1"])
		assert.Equal(t, []any{domain.QABand}, constant(t, qa["bandSelectors"]))
	}
}

func TestTransform_Unknown(t *testing.T) {
	_, err := transform(newGraph(), domain.Transform("sharpen"))
	assert.Error(t, err)
}

func TestThumbnailExpression(t *testing.T) {
	center := domain.GeoPoint{Lat: 37.8, Lon: -122.4}
	image := domain.CloudFreeQuery(center, domain.YearRange(2020)).First().Select(domain.DisplayBands...)
	spec := domain.ThumbnailSpec{
		Image:  image,
		Region: geospatial.SquareRegion(center, 100),
		Width:  domain.ThumbnailWidth,
		Height: domain.ThumbnailHeight,
		Format: domain.ThumbnailFormat,
		Vis:    domain.DefaultVisParams(),
	}

	expr, err := thumbnailExpression(spec)
	require.NoError(t, err)
	values := roundTrip(t, expr)["values"].(map[string]any)

	name, vis := invocation(t, values["0"])
	assert.Equal(t, "Image.visualize", name)
	assert.Equal(t, 0.0, constant(t, vis["min"]))
	assert.Equal(t, 0.3, constant(t, vis["max"]))
	assert.Equal(t, 1.4, constant(t, vis["gamma"]))
	assert.Equal(t, []any{"B4", "B3", "B2"}, constant(t, vis["bands"]))

	name, clip := invocation(t, vis["image"])
	assert.Equal(t, "Image.clipToBoundsAndScale", name)
	assert.Equal(t, "2048", clip["width"].(map[string]any)["integerValue"])
	assert.Equal(t, "2048", clip["height"].(map[string]any)["integerValue"])

	geomName, geom := invocation(t, clip["geometry"])
	assert.Equal(t, "GeometryConstructors.Polygon", geomName)
	rings := constant(t, geom["coordinates"]).([]any)
	require.Len(t, rings, 1)
	assert.Len(t, rings[0], 5)

	name, sel := invocation(t, clip["input"])
	assert.Equal(t, "Image.select", name)
	name, _ = invocation(t, sel["input"])
	assert.Equal(t, "Collection.first", name)
}

func TestThumbnailExpression_Invalid(t *testing.T) {
	center := domain.GeoPoint{Lat: 1, Lon: 1}
	image := domain.NewCollectionQuery("c").First()
	region := geospatial.SquareRegion(center, 100)
	open := region
	open.Coordinates = region.Coordinates[:len(region.Coordinates)-1]

	tests := []struct {
		name string
		spec domain.ThumbnailSpec
	}{
		{"collection", domain.ThumbnailSpec{Image: domain.NewCollectionQuery("c"), Region: region, Width: 1, Height: 1}},
		{"empty region", domain.ThumbnailSpec{Image: image, Width: 1, Height: 1}},
		{"open ring", domain.ThumbnailSpec{Image: image, Region: open, Width: 1, Height: 1}},
		{"zero width", domain.ThumbnailSpec{Image: image, Region: region, Height: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := thumbnailExpression(tt.spec)
			assert.Error(t, err)
		})
	}
}

func TestFileFormat(t *testing.T) {
	f, err := fileFormat("png")
	require.NoError(t, err)
	assert.Equal(t, "PNG", f)

	f, err = fileFormat("JPG")
	require.NoError(t, err)
	assert.Equal(t, "JPEG", f)

	_, err = fileFormat("tiff")
	assert.Error(t, err)
}
