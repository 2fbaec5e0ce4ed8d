package remote

import "github.com/hupe1980/nmcp/model"

const pendingQuery = `query QueryPrecomputed {
  pendingPrecomputed {
    id
    skeletonSegmentId
    version
    generatedAt
    reconstructionId
  }
}`

const updateMutation = `mutation UpdatePrecomputed($id: String!, $version: Int!, $generatedAt: Date!) {
  updatePrecomputed(id: $id, version: $version, generatedAt: $generatedAt) {
    id
    version
    generatedAt
  }
}`

const reconstructionQuery = `query ReconstructionData($id: String!, $input: ReconstructionDataChunkedInput) {
  reconstructionDataChunked(id: $id, input: $input) {
    header {
      id
      idString
      DOI
      soma {
        x
        y
        z
        allenId
      }
      sample {
        genotype
      }
    }
    axon {
      x
      y
      z
      radius
      sampleNumber
      parentNumber
      allenId
      structureIdentifier
    }
    axonChunkInfo {
      totalCount
      offset
      limit
      hasMore
    }
    dendrite {
      x
      y
      z
      radius
      sampleNumber
      parentNumber
      allenId
      structureIdentifier
    }
    dendriteChunkInfo {
      totalCount
      offset
      limit
      hasMore
    }
  }
}`

// Versions reported through updatePrecomputed.
const (
	versionGenerated = 1
	versionFailed    = -1
)

type pendingData struct {
	PendingPrecomputed []precomputedEntry `json:"pendingPrecomputed"`
}

type precomputedEntry struct {
	ID                string   `json:"id"`
	SkeletonSegmentID *int64   `json:"skeletonSegmentId"`
	Version           *int     `json:"version"`
	GeneratedAt       *float64 `json:"generatedAt"`
	ReconstructionID  string   `json:"reconstructionId"`
}

type updateData struct {
	UpdatePrecomputed *precomputedEntry `json:"updatePrecomputed"`
}

type reconstructionData struct {
	ReconstructionDataChunked *chunkedData `json:"reconstructionDataChunked"`
}

type chunkedData struct {
	Header            *header          `json:"header"`
	Axon              []model.RawPoint `json:"axon"`
	AxonChunkInfo     *chunkInfo       `json:"axonChunkInfo"`
	Dendrite          []model.RawPoint `json:"dendrite"`
	DendriteChunkInfo *chunkInfo       `json:"dendriteChunkInfo"`
}

type header struct {
	ID       string `json:"id"`
	IDString string `json:"idString"`
	DOI      string `json:"DOI"`
	Soma     *struct {
		AllenID *int64 `json:"allenId"`
	} `json:"soma"`
	Sample *struct {
		Genotype *string `json:"genotype"`
	} `json:"sample"`
}

type chunkInfo struct {
	TotalCount int  `json:"totalCount"`
	Offset     int  `json:"offset"`
	Limit      int  `json:"limit"`
	HasMore    bool `json:"hasMore"`
}

func (h *header) toModel() model.Header {
	out := model.Header{
		ID:           h.ID,
		Label:        h.IDString,
		DOI:          h.DOI,
		SomaRegionID: model.NoRegion,
	}
	if h.Soma != nil && h.Soma.AllenID != nil {
		out.SomaRegionID = *h.Soma.AllenID
	}
	if h.Sample != nil && h.Sample.Genotype != nil {
		out.Strain = *h.Sample.Genotype
	}
	return out
}
