package precomputed

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/nmcp/atlas"
	"github.com/hupe1980/nmcp/blobstore"
	"github.com/hupe1980/nmcp/codec"
	"github.com/hupe1980/nmcp/internal/compress"
	"github.com/hupe1980/nmcp/lock"
	"github.com/hupe1980/nmcp/segment"
	"github.com/hupe1980/nmcp/skeleton"
)

// Properties are the segment properties committed with a skeleton.
type Properties struct {
	Label    string
	Strain   string
	RegionID int64
}

// Record is one skeleton to commit.
type Record struct {
	ID         uint64
	Graph      *skeleton.Graph
	Properties Properties
}

// Dataset is a precomputed dataset on a blob store.
type Dataset struct {
	store        blobstore.BlobStore
	locker       lock.Locker
	resolver     atlas.Resolver
	compression  compress.Type
	snapCodec    codec.Codec
	layerInfo    LayerInfo
	skeletonInfo SkeletonInfo
}

// Option configures a Dataset.
type Option func(*Dataset)

// WithLocker sets the lock that serializes transactions. Default: an
// in-process mutex, which is only correct for a single writer process.
func WithLocker(l lock.Locker) Option {
	return func(d *Dataset) {
		if l != nil {
			d.locker = l
		}
	}
}

// WithResolver sets the atlas used to tag committed rows.
func WithResolver(r atlas.Resolver) Option {
	return func(d *Dataset) { d.resolver = r }
}

// WithCompression sets the snapshot compression. Default: ZSTD.
func WithCompression(t compress.Type) Option {
	return func(d *Dataset) { d.compression = t }
}

// WithSnapshotCodec sets the payload codec of new snapshots. Default: CBOR.
// Snapshots record their codec, so existing ones stay readable.
func WithSnapshotCodec(c codec.Codec) Option {
	return func(d *Dataset) {
		if c != nil {
			d.snapCodec = c
		}
	}
}

// WithLayerInfo replaces the layer info written by EnsureInfo.
func WithLayerInfo(info LayerInfo) Option {
	return func(d *Dataset) { d.layerInfo = info }
}

// NewDataset creates a dataset rooted at store.
func NewDataset(store blobstore.BlobStore, opts ...Option) *Dataset {
	d := &Dataset{
		store:        store,
		locker:       lock.NewMutex(),
		compression:  compress.ZSTD,
		snapCodec:    codec.CBOR{},
		layerInfo:    DefaultLayerInfo(),
		skeletonInfo: DefaultSkeletonInfo(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Store returns the underlying blob store.
func (d *Dataset) Store() blobstore.BlobStore {
	return d.store
}

// SkeletonName returns the blob name of skeleton id.
func SkeletonName(id uint64) string {
	return skeletonDir + "/" + strconv.FormatUint(id, 10)
}

// LoadIndex reads the property index. A dataset without a snapshot has an
// empty index. A snapshot that cannot be decoded is an error.
func (d *Dataset) LoadIndex(ctx context.Context) (*segment.Index, error) {
	data, err := blobstore.ReadAll(ctx, d.store, snapshotName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return segment.NewIndex(d.resolver), nil
	}
	if err != nil {
		return nil, persistErr("load snapshot", snapshotName, err)
	}

	idx, err := segment.ReadSnapshot(bytes.NewReader(data), d.resolver)
	if err != nil {
		return nil, persistErr("load snapshot", snapshotName, err)
	}
	return idx, nil
}

// Commit uploads one skeleton and upserts its properties.
func (d *Dataset) Commit(ctx context.Context, id uint64, g *skeleton.Graph, props Properties) error {
	return d.CommitAll(ctx, Record{ID: id, Graph: g, Properties: props})
}

// CommitAll uploads the skeletons of recs and upserts their properties in one
// transaction. Records are applied in order, so a later record for the same
// id wins.
func (d *Dataset) CommitAll(ctx context.Context, recs ...Record) error {
	for _, r := range recs {
		if r.Graph.NumVertices() == 0 {
			return persistErr("upload skeleton", SkeletonName(r.ID), skeleton.ErrNoSkeletonData)
		}
	}

	return lock.With(ctx, d.locker, func() error {
		idx, err := d.LoadIndex(ctx)
		if err != nil {
			return err
		}

		for _, r := range recs {
			name := SkeletonName(r.ID)
			if err := d.store.Put(ctx, name, EncodeSkeleton(r.Graph)); err != nil {
				return persistErr("upload skeleton", name, err)
			}
			idx.Append(r.ID, r.Properties.Label, r.Properties.Strain, r.Properties.RegionID)
		}

		return d.save(ctx, idx)
	})
}

// Remove deletes the row and the skeleton blob of id. It reports whether the
// index held a row for id. A stray skeleton blob is deleted either way.
func (d *Dataset) Remove(ctx context.Context, id uint64) (bool, error) {
	var removed bool

	err := lock.With(ctx, d.locker, func() error {
		idx, err := d.LoadIndex(ctx)
		if err != nil {
			return err
		}

		if removed = idx.Remove(id); removed {
			if err := d.save(ctx, idx); err != nil {
				return err
			}
		}

		name := SkeletonName(id)
		return persistErr("delete skeleton", name, d.store.Delete(ctx, name))
	})

	return removed, err
}

// List returns the committed skeleton ids in index order.
func (d *Dataset) List(ctx context.Context) ([]uint64, error) {
	idx, err := d.LoadIndex(ctx)
	if err != nil {
		return nil, err
	}
	return idx.IDs(), nil
}

// Skeleton reads and decodes the skeleton of id.
func (d *Dataset) Skeleton(ctx context.Context, id uint64) (*skeleton.Graph, error) {
	name := SkeletonName(id)
	data, err := blobstore.ReadAll(ctx, d.store, name)
	if err != nil {
		return nil, persistErr("read skeleton", name, err)
	}
	g, err := DecodeSkeleton(data)
	if err != nil {
		return nil, persistErr("read skeleton", name, err)
	}
	return g, nil
}

// CheckReport lists inconsistencies between the index and skeleton blobs.
type CheckReport struct {
	// Missing ids have a row but no skeleton blob.
	Missing []uint64
	// Orphaned ids have a skeleton blob but no row.
	Orphaned []uint64
}

// OK reports whether index and blobs agree.
func (r CheckReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Orphaned) == 0
}

// Check compares the index with the skeleton blobs in the store.
func (d *Dataset) Check(ctx context.Context) (CheckReport, error) {
	idx, err := d.LoadIndex(ctx)
	if err != nil {
		return CheckReport{}, err
	}

	names, err := d.store.List(ctx, skeletonDir+"/")
	if err != nil {
		return CheckReport{}, persistErr("list", skeletonDir, err)
	}

	blobs := roaring64.New()
	for _, n := range names {
		id, err := strconv.ParseUint(strings.TrimPrefix(n, skeletonDir+"/"), 10, 64)
		if err != nil {
			continue // info and foreign files
		}
		blobs.Add(id)
	}

	rows := idx.Members()

	return CheckReport{
		Missing:  roaring64.AndNot(rows, blobs).ToArray(),
		Orphaned: roaring64.AndNot(blobs, rows).ToArray(),
	}, nil
}

func (d *Dataset) save(ctx context.Context, idx *segment.Index) error {
	desc, err := codec.Default.Marshal(idx.Export().Descriptor())
	if err != nil {
		return persistErr("encode descriptor", descriptorName, err)
	}

	var snap bytes.Buffer
	if err := idx.WriteSnapshot(&snap, d.compression, d.snapCodec); err != nil {
		return persistErr("encode snapshot", snapshotName, err)
	}

	// A lapsed lease means another writer may have saved since LoadIndex.
	if err := lock.Verify(ctx, d.locker); err != nil {
		return persistErr("verify lock", snapshotName, err)
	}

	if err := d.store.Put(ctx, descriptorName, desc); err != nil {
		return persistErr("write descriptor", descriptorName, err)
	}
	if err := d.store.Put(ctx, snapshotName, snap.Bytes()); err != nil {
		return persistErr("write snapshot", snapshotName, err)
	}
	return nil
}

