package precomputed

import (
	"context"

	"github.com/hupe1980/nmcp/blobstore"
	"github.com/hupe1980/nmcp/codec"
)

const (
	infoName          = "info"
	skeletonDir       = "skeleton"
	skeletonInfoName  = skeletonDir + "/info"
	propertiesDir     = "segment_properties"
	descriptorName    = propertiesDir + "/info"
	snapshotName      = descriptorName + ".snapshot"
	skeletonTypeName  = "neuroglancer_skeletons"
	attributeDataType = "float32"
)

// Scale is one resolution level of the layer info.
type Scale struct {
	Key         string     `json:"key"`
	Encoding    string     `json:"encoding"`
	Resolution  [3]float64 `json:"resolution"`
	VoxelOffset [3]int     `json:"voxel_offset"`
	Size        [3]int     `json:"size"`
	ChunkSizes  [][3]int   `json:"chunk_sizes"`
}

// LayerInfo is the top-level info file of the dataset.
type LayerInfo struct {
	Type              string  `json:"type"`
	DataType          string  `json:"data_type"`
	NumChannels       int     `json:"num_channels"`
	Scales            []Scale `json:"scales"`
	Skeletons         string  `json:"skeletons"`
	SegmentProperties string  `json:"segment_properties"`
}

// VertexAttribute describes one per-vertex attribute of the skeleton format.
type VertexAttribute struct {
	ID            string `json:"id"`
	DataType      string `json:"data_type"`
	NumComponents int    `json:"num_components"`
}

// SkeletonInfo is the info file of the skeleton directory.
type SkeletonInfo struct {
	Type             string            `json:"@type"`
	Transform        [12]float64       `json:"transform"`
	VertexAttributes []VertexAttribute `json:"vertex_attributes"`
}

// VertexAttributes lists the encoded vertex attributes in file order.
var VertexAttributes = []VertexAttribute{
	{ID: "radius", DataType: attributeDataType, NumComponents: 1},
	{ID: "allenId", DataType: attributeDataType, NumComponents: 1},
	{ID: "compartment", DataType: attributeDataType, NumComponents: 1},
}

// DefaultLayerInfo returns the layer info written to new datasets: a
// segmentation layer at 1µm resolution covering the mouse CCF volume.
func DefaultLayerInfo() LayerInfo {
	return LayerInfo{
		Type:        "segmentation",
		DataType:    "uint64",
		NumChannels: 1,
		Scales: []Scale{{
			Key:        "1000_1000_1000",
			Encoding:   "raw",
			Resolution: [3]float64{1000, 1000, 1000},
			Size:       [3]int{13200, 8000, 11400},
			ChunkSizes: [][3]int{{512, 512, 512}},
		}},
		Skeletons:         skeletonDir,
		SegmentProperties: propertiesDir,
	}
}

// DefaultSkeletonInfo returns the skeleton info written to new datasets.
// Positions are in µm and the transform scales them to nm.
func DefaultSkeletonInfo() SkeletonInfo {
	return SkeletonInfo{
		Type:             skeletonTypeName,
		Transform:        [12]float64{1000, 0, 0, 0, 0, 1000, 0, 0, 0, 0, 1000, 0},
		VertexAttributes: VertexAttributes,
	}
}

// EnsureInfo writes the layer and skeleton info files if they are missing.
// Existing files are left untouched.
func (d *Dataset) EnsureInfo(ctx context.Context) error {
	if err := d.ensureJSON(ctx, infoName, d.layerInfo); err != nil {
		return err
	}
	return d.ensureJSON(ctx, skeletonInfoName, d.skeletonInfo)
}

func (d *Dataset) ensureJSON(ctx context.Context, name string, v any) error {
	ok, err := blobstore.Exists(ctx, d.store, name)
	if err != nil {
		return persistErr("stat", name, err)
	}
	if ok {
		return nil
	}

	data, err := codec.GoJSON{}.MarshalIndent(v)
	if err != nil {
		return persistErr("encode", name, err)
	}
	return persistErr("write", name, d.store.Put(ctx, name, data))
}
