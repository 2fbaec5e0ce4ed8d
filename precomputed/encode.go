package precomputed

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/nmcp/skeleton"
)

// EncodeSkeleton encodes g in the Neuroglancer precomputed skeleton format
// with the attributes of VertexAttributes.
func EncodeSkeleton(g *skeleton.Graph) []byte {
	nv := len(g.Vertices)
	ne := len(g.Edges)

	size := 8 + nv*3*4 + ne*2*4 + nv*4*len(VertexAttributes)
	buf := make([]byte, size)
	le := binary.LittleEndian

	le.PutUint32(buf[0:], uint32(nv))
	le.PutUint32(buf[4:], uint32(ne))
	off := 8

	putF32 := func(v float32) {
		le.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}

	for _, v := range g.Vertices {
		putF32(v.Position[0])
		putF32(v.Position[1])
		putF32(v.Position[2])
	}
	for _, e := range g.Edges {
		le.PutUint32(buf[off:], uint32(e.Child))
		le.PutUint32(buf[off+4:], uint32(e.Parent))
		off += 8
	}
	for _, v := range g.Vertices {
		putF32(v.Radius)
	}
	for _, v := range g.Vertices {
		putF32(float32(v.RegionID))
	}
	for _, v := range g.Vertices {
		putF32(float32(v.Compartment))
	}

	return buf
}

// DecodeSkeleton decodes a blob written by EncodeSkeleton. Region ids pass
// through float32 and are exact only up to 2^24.
func DecodeSkeleton(data []byte) (*skeleton.Graph, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSkeleton, len(data))
	}

	le := binary.LittleEndian
	nv := int(le.Uint32(data[0:]))
	ne := int(le.Uint32(data[4:]))

	want := 8 + nv*3*4 + ne*2*4 + nv*4*len(VertexAttributes)
	if nv < 0 || ne < 0 || len(data) != want {
		return nil, fmt.Errorf("%w: %d vertices and %d edges need %d bytes, have %d",
			ErrInvalidSkeleton, nv, ne, want, len(data))
	}

	off := 8
	getF32 := func() float32 {
		v := math.Float32frombits(le.Uint32(data[off:]))
		off += 4
		return v
	}

	g := &skeleton.Graph{
		Vertices: make([]skeleton.Vertex, nv),
		Edges:    make([]skeleton.Edge, ne),
	}

	for i := range g.Vertices {
		g.Vertices[i].Position = [3]float32{getF32(), getF32(), getF32()}
	}
	for i := range g.Edges {
		g.Edges[i] = skeleton.Edge{
			Child:  int(le.Uint32(data[off:])),
			Parent: int(le.Uint32(data[off+4:])),
		}
		off += 8
	}
	for i := range g.Vertices {
		g.Vertices[i].Radius = getF32()
	}
	for i := range g.Vertices {
		g.Vertices[i].RegionID = int64(getF32())
	}
	for i := range g.Vertices {
		g.Vertices[i].Compartment = int32(getF32())
	}

	return g, nil
}
