package jsonsource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hupe1980/nmcp/codec"
	"github.com/hupe1980/nmcp/model"
)

// File is the top-level document of a neuron export.
type File struct {
	Neurons []Neuron `json:"neurons"`
}

// Neuron is one exported reconstruction.
type Neuron struct {
	ID       string           `json:"id"`
	IDString string           `json:"idString"`
	DOI      string           `json:"DOI"`
	Soma     *Soma            `json:"soma"`
	Sample   *Sample          `json:"sample"`
	Axon     []model.RawPoint `json:"axon"`
	Dendrite []model.RawPoint `json:"dendrite"`
}

// Soma is the soma sample of a neuron.
type Soma struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	AllenID *int64  `json:"allenId"`
}

// Sample describes the specimen a neuron was traced in.
type Sample struct {
	Strain   *string `json:"strain"`
	Genotype *string `json:"genotype"`
}

// Header returns the metadata of n. The label is the idString and the strain
// the sample strain.
func (n *Neuron) Header() model.Header {
	h := model.Header{
		ID:           n.ID,
		Label:        n.IDString,
		DOI:          n.DOI,
		SomaRegionID: model.NoRegion,
	}
	if h.ID == "" {
		h.ID = n.IDString
	}
	if n.Soma != nil && n.Soma.AllenID != nil {
		h.SomaRegionID = *n.Soma.AllenID
	}
	if n.Sample != nil && n.Sample.Strain != nil {
		h.Strain = *n.Sample.Strain
	}
	return h
}

// SkeletonID derives a skeleton id from characters 1 to 3 of an idString,
// so "N015-609281" yields 15. ok is false when no id can be derived.
func SkeletonID(idString string) (id uint64, ok bool) {
	if len(idString) < 2 {
		return 0, false
	}
	digits := strings.TrimSpace(idString[1:min(4, len(idString))])
	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Parse decodes one neuron export.
func Parse(data []byte) (*File, error) {
	var f File
	if err := codec.Default.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("jsonsource: decode: %w", err)
	}
	return &f, nil
}

// ReadFile reads and decodes one neuron export.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jsonsource: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Expand replaces every directory in paths with the *.json files it holds,
// sorted by name.
func Expand(paths ...string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("jsonsource: %w", err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("jsonsource: %w", err)
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}
