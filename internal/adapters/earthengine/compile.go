package earthengine

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/samirrijal/earthimagery/internal/core/domain"
	"github.com/samirrijal/earthimagery/internal/pkg/geospatial"
)

// mappingVar is the argument name Earth Engine clients use for the first
// mapped function.
const mappingVar = "_MAPPING_VAR_0_0"

// compileQuery translates q into an expression node. Function bodies are
// defined in g.
func compileQuery(g *graph, q domain.ImageCollectionQuery) (*valueNode, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	node := invoke("ImageCollection.load", args{"id": stringConst(q.Collection)})
	for i, s := range q.Steps {
		switch s.Kind {
		case domain.StepFilterBounds:
			node = filter(node, invoke("Filter.intersects", args{
				"leftField":  stringConst(".all"),
				"rightValue": point(*s.Point),
			}))
		case domain.StepFilterDate:
			node = filter(node, invoke("Filter.dateRangeContains", args{
				"leftValue": invoke("DateRange", args{
					"start": invoke("Date", args{"value": stringConst(s.Dates.StartString())}),
					"end":   invoke("Date", args{"value": stringConst(s.Dates.EndString())}),
				}),
				"rightField": stringConst("system:time_start"),
			}))
		case domain.StepFilterLessThan:
			node = filter(node, invoke("Filter.lessThan", args{
				"leftField":  stringConst(s.Property),
				"rightValue": numberConst(s.Value),
			}))
		case domain.StepMap:
			fn, err := transform(g, s.Transform)
			if err != nil {
				return nil, fmt.Errorf("query: step %d: %w", i, err)
			}
			node = invoke("Collection.map", args{"collection": node, "baseAlgorithm": fn})
		case domain.StepSort:
			node = invoke("Collection.limit", args{
				"collection": node,
				"key":        stringConst(s.Property),
				"ascending":  boolConst(s.Ascending),
			})
		case domain.StepFirst:
			node = invoke("Collection.first", args{"collection": node})
		case domain.StepSelect:
			node = invoke("Image.select", args{"input": node, "bandSelectors": stringList(s.Bands)})
		}
	}
	return node, nil
}

func filter(collection, f *valueNode) *valueNode {
	return invoke("Collection.filter", args{"collection": collection, "filter": f})
}

func point(p domain.GeoPoint) *valueNode {
	return invoke("GeometryConstructors.Point", args{
		"coordinates": {ConstantValue: numberList(p.Lon, p.Lat)},
	})
}

func polygon(poly orb.Polygon) *valueNode {
	rings := make([]*structpb.Value, len(poly))
	for i, r := range poly {
		pts := make([]*structpb.Value, len(r))
		for j, p := range r {
			pts[j] = numberList(p.Lon(), p.Lat())
		}
		rings[i] = listOf(pts...)
	}
	return invoke("GeometryConstructors.Polygon", args{
		"coordinates": {ConstantValue: listOf(rings...)},
		"evenOdd":     boolConst(true),
	})
}

func imageConstant(v float64) *valueNode {
	return invoke("Image.constant", args{"value": numberConst(v)})
}

// transform returns a function definition for t. The body is stored in g.
func transform(g *graph, t domain.Transform) (*valueNode, error) {
	switch t {
	case domain.TransformCloudMaskS2:
		img := &valueNode{ArgumentReference: mappingVar}
		qa := invoke("Image.select", args{"input": img, "bandSelectors": stringList([]string{domain.QABand})})
		isClear := func(mask int) *valueNode {
			return invoke("Image.eq", args{
				"image1": invoke("Image.bitwiseAnd", args{"image1": qa, "image2": imageConstant(float64(mask))}),
				"image2": imageConstant(0),
			})
		}
		mask := invoke("Image.and", args{
			"image1": isClear(domain.CloudBitMask),
			"image2": isClear(domain.CirrusBitMask),
		})
		body := invoke("Image.divide", args{
			"image1": invoke("Image.updateMask", args{"image": img, "mask": mask}),
			"image2": imageConstant(domain.ReflectanceDiv),
		})
		return &valueNode{FunctionDefinitionValue: &functionDefinition{
			ArgumentNames: []string{mappingVar},
			Body:          g.define(body),
		}}, nil
	default:
		return nil, fmt.Errorf("unknown transform %q", t)
	}
}

// sizeExpression counts the images the query yields.
func sizeExpression(q domain.ImageCollectionQuery) (*expression, error) {
	if q.IsImage() {
		return nil, fmt.Errorf("query: size requires a collection")
	}
	g := newGraph()
	node, err := compileQuery(g, q)
	if err != nil {
		return nil, err
	}
	return g.expression(invoke("Collection.size", args{"collection": node})), nil
}

// thumbnailExpression clips and scales the image to the requested region and
// applies the visualization.
func thumbnailExpression(spec domain.ThumbnailSpec) (*expression, error) {
	if !spec.Image.IsImage() {
		return nil, fmt.Errorf("query: thumbnail requires a single image")
	}
	region := geospatial.Polygon(spec.Region)
	if ring := region[0]; len(ring) < 4 || !ring.Closed() {
		return nil, fmt.Errorf("thumbnail: region needs a closed ring")
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("thumbnail: invalid dimensions %dx%d", spec.Width, spec.Height)
	}

	g := newGraph()
	img, err := compileQuery(g, spec.Image)
	if err != nil {
		return nil, err
	}
	clipped := invoke("Image.clipToBoundsAndScale", args{
		"input":    img,
		"geometry": polygon(region),
		"width":    intValue(spec.Width),
		"height":   intValue(spec.Height),
	})
	visArgs := args{
		"image": clipped,
		"min":   numberConst(spec.Vis.Min),
		"max":   numberConst(spec.Vis.Max),
		"gamma": numberConst(spec.Vis.Gamma),
	}
	if len(spec.Vis.Bands) > 0 {
		visArgs["bands"] = stringList(spec.Vis.Bands)
	}
	return g.expression(invoke("Image.visualize", visArgs)), nil
}

// fileFormat maps an image extension to the REST ImageFileFormat enum.
func fileFormat(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "png":
		return "PNG", nil
	case "jpg", "jpeg":
		return "JPEG", nil
	default:
		return "", fmt.Errorf("thumbnail: unsupported format %q", format)
	}
}
